package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

/* Structs */

type Options struct {
	// Verbosity is the number of -v flags: 0 info, 1 debug, 2+ trace.
	Verbosity int
	// File is the rotated log file; empty disables file logging.
	File string
	// Output defaults to os.Stderr.
	Output io.Writer

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

/* Vars */

var (
	prefixLogger = logrus.New()
)

/* Public */

func Init(opts Options) error {
	switch {
	case opts.Verbosity >= 2:
		prefixLogger.SetLevel(logrus.TraceLevel)
	case opts.Verbosity == 1:
		prefixLogger.SetLevel(logrus.DebugLevel)
	default:
		prefixLogger.SetLevel(logrus.InfoLevel)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	formatter := &prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceFormatting: true,
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), os.ModePerm); err != nil {
			return errors.Wrapf(err, "create log directory for %s", opts.File)
		}

		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    valueOr(opts.MaxSizeMB, 5),
			MaxBackups: valueOr(opts.MaxBackups, 10),
			MaxAge:     valueOr(opts.MaxAgeDays, 14),
		}

		// colour codes would end up in the file
		formatter.DisableColors = true
		out = io.MultiWriter(out, rotator)
	}

	prefixLogger.SetFormatter(formatter)
	prefixLogger.SetOutput(out)
	return nil
}

func GetLogger(prefix string) *logrus.Entry {
	return prefixLogger.WithFields(logrus.Fields{"prefix": prefix})
}

/* Private */

func valueOr(v int, def int) int {
	if v > 0 {
		return v
	}
	return def
}
