package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autobrr/relink/pkg/config"
	"github.com/autobrr/relink/pkg/expression"
	"github.com/autobrr/relink/pkg/logger"
	"github.com/autobrr/relink/pkg/notification"
	"github.com/autobrr/relink/pkg/paths"
	"github.com/autobrr/relink/pkg/relink"
)

var (
	flagHash     string
	flagProgress bool
)

func RootCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "relink [DIRECTORY]",
		Short: "Replace duplicate files with hard links",
		Long: `A CLI application that finds files with identical content in a directory tree
and replaces every copy but the first one found with a hard link to it.

Replaced files share one inode afterwards: editing one of them changes all of them.

A directory named like a subcommand (version, update) needs a path prefix, e.g. ./update.
`,
		Example: `  relink /data/media
  relink --dry-run -v /data/media
  relink ./update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Parse persistent flags
	command.PersistentFlags().StringVar(&FlagConfigFolder, "config-dir", FlagConfigFolder, "Config folder")
	command.PersistentFlags().StringVarP(&FlagConfigFile, "config", "c", FlagConfigFile, "Config file")
	command.PersistentFlags().StringVarP(&FlagLogFile, "log", "l", FlagLogFile, "Log file")
	command.PersistentFlags().CountVarP(&FlagLogLevel, "verbose", "v", "Verbose level")
	command.PersistentFlags().BoolVar(&FlagDryRun, "dry-run", false, "Dry run mode")

	command.Flags().StringVar(&flagHash, "hash", "", "Hash algorithm (md5, sha1, sha256), overrides the config")
	command.Flags().BoolVar(&flagProgress, "progress", false, "Show hashing progress on stderr")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		// init core
		if !initialized {
			if err := initCore(); err != nil {
				return err
			}
			initialized = true
		}

		// set log
		log := logger.GetLogger("relink")

		ignore, err := expression.Compile(config.Config.Filter.Ignore)
		if err != nil {
			return err
		}

		include, err := expression.Compile(config.Config.Filter.Include)
		if err != nil {
			return err
		}

		algorithm := config.Config.Hash
		if flagHash != "" {
			algorithm = flagHash
		}

		opts := relink.Options{
			Algorithm:   algorithm,
			IgnorePaths: config.Config.Filter.IgnorePaths,
			Ignore:      ignore,
			Include:     include,
			DryRun:      FlagDryRun,
			Reporter:    relink.NewTextReporter(cmd.OutOrStdout()),
		}

		if flagProgress {
			bar := newProgressBar(cmd.ErrOrStderr())
			defer bar.Finish()

			opts.Progress = func(entry paths.Entry) {
				_ = bar.Add(1)
			}
		}

		result, err := relink.ReplaceCopies(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}

		if result == nil {
			// missing directory, already reported
			return nil
		}

		notifyResult(log, result, time.Since(start))
		return nil
	}

	command.AddCommand(VersionCommand())
	command.AddCommand(UpdateCommand())

	return command
}

func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Hashing files"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

func notifyResult(log *logrus.Entry, result *relink.Result, runTime time.Duration) {
	noti := notification.NewDiscordSender(log, config.Config.Notifications)
	if !noti.CanSend() {
		log.Debug("Notifications disabled, skipping...")
		return
	}

	fields := make([]notification.Field, 0, len(result.Replacements))
	for _, rep := range result.Replacements {
		action := notification.ActionRelink
		if rep.AlreadyLinked {
			action = notification.ActionAlreadyLinked
		}

		fields = append(fields, noti.BuildField(action, notification.BuildOptions{
			Representative: rep.Representative,
			Replaced:       rep.Path,
			Size:           rep.Size,
		}))
	}

	sendErr := noti.Send(
		"Relink",
		fmt.Sprintf("Relinked **%d** files in **%d** groups of %q | Total reclaimed **%s**",
			result.Replaced(), len(result.Inspection.Groups), result.Directory, humanize.IBytes(result.ReclaimedBytes)),
		runTime,
		fields,
		FlagDryRun,
	)
	if sendErr != nil {
		log.WithError(sendErr).Error("Failed sending notification")
	}
}
