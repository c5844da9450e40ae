package cmd

import (
	"bufio"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/autobrr/relink/pkg/runtime"
)

const repositorySlug = "autobrr/relink"

func UpdateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "update",
		Short: "Update to latest version",
		Long:  `This command can be used to self-update to the latest version.`,
		Args:  cobra.NoArgs,
	}

	command.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		// detect latest version
		fmt.Fprintln(out, "Checking for the latest version...")
		latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repositorySlug))
		if err != nil {
			return errors.Wrap(err, "failed determining latest available version")
		}

		// check version
		if !found || latest.LessOrEqual(runtime.Version) {
			fmt.Fprintf(out, "Already using the latest version: %v\n", runtime.Version)
			return nil
		}

		// ask update
		fmt.Fprintf(out, "Do you want to update to the latest version: %v? (y/n):\n", latest.Version())
		input, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil || (input != "y\n" && input != "n\n") {
			return errors.New("failed validating input")
		} else if input == "n\n" {
			return nil
		}

		// get existing executable path
		exe, err := selfupdate.ExecutablePath()
		if err != nil {
			return errors.Wrap(err, "failed locating current executable path")
		}

		if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
			return errors.Wrap(err, "failed updating existing binary to latest release")
		}

		fmt.Fprintf(out, "Successfully updated to the latest version: %v\n", latest.Version())
		return nil
	}

	return command
}
