package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"

	"github.com/autobrr/relink/pkg/expression"
	"github.com/autobrr/relink/pkg/hasher"
)

const envPrefix = "RELINK__"

type Configuration struct {
	Hash          string              `koanf:"hash"`
	Filter        FilterConfiguration `koanf:"filter"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

type FilterConfiguration struct {
	IgnorePaths []string `yaml:"ignore_paths" koanf:"ignore_paths"`
	Ignore      []string `koanf:"ignore"`
	Include     []string `koanf:"include"`
}

var Config *Configuration

// Init loads the configuration into Config.
func Init(configFilePath string) error {
	cfg, err := Load(configFilePath)
	if err != nil {
		return err
	}

	Config = cfg
	return nil
}

// Load reads defaults, then the YAML file at configFilePath when it exists, then RELINK__ environment variables.
func Load(configFilePath string) (*Configuration, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"hash": hasher.DefaultAlgorithm,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	if configFilePath != "" {
		if _, err := os.Stat(configFilePath); err == nil {
			if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "load config file %s", configFilePath)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat config file %s", configFilePath)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	cfg := &Configuration{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Configuration) Validate() error {
	if _, err := hasher.GetAlgorithm(c.Hash); err != nil {
		return errors.Wrap(err, "validate hash")
	}

	if _, err := expression.Compile(c.Filter.Ignore); err != nil {
		return errors.Wrap(err, "validate filter.ignore")
	}

	if _, err := expression.Compile(c.Filter.Include); err != nil {
		return errors.Wrap(err, "validate filter.include")
	}

	return nil
}

// GetDefaultConfigDirectory returns the directory holding filename: the working
// directory when filename exists there, otherwise the user config dir for app.
func GetDefaultConfigDirectory(app string, filename string) string {
	if _, err := os.Stat(filename); err == nil {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}

	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, app)
	}

	return "."
}

// RELINK__FILTER__IGNORE_PATHS -> filter.ignore_paths
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}
