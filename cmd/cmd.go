package cmd

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/autobrr/relink/pkg/config"
	"github.com/autobrr/relink/pkg/logger"
)

var (
	// Global flags
	FlagLogLevel     = 0
	FlagConfigFile   = "config.yaml"
	FlagConfigFolder = config.GetDefaultConfigDirectory("relink", FlagConfigFile)
	FlagLogFile      = "activity.log"
	FlagDryRun       bool

	// Global vars
	initialized bool
)

func initCore() error {
	logFile := FlagLogFile
	if logFile != "" && !filepath.IsAbs(logFile) {
		logFile = filepath.Join(FlagConfigFolder, logFile)
	}

	if err := logger.Init(logger.Options{Verbosity: FlagLogLevel, File: logFile}); err != nil {
		return errors.Wrap(err, "initialize logger")
	}

	configFile := FlagConfigFile
	if !filepath.IsAbs(configFile) {
		configFile = filepath.Join(FlagConfigFolder, configFile)
	}

	if err := config.Init(configFile); err != nil {
		return errors.Wrapf(err, "initialize config from %s", configFile)
	}

	logger.GetLogger("core").Debugf("Using config %s", configFile)
	return nil
}
