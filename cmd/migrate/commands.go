package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noah-isme/enrollment-api/migrations"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := resolveURL()
		if err != nil {
			return err
		}
		version, err := migrations.Up(url)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default: 1)",
	Example: `  migrate down      # roll back one migration
  migrate down 2    # roll back two migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid steps %q", args[0])
			}
			steps = n
		}
		url, err := resolveURL()
		if err != nil {
			return err
		}
		version, err := migrations.Down(url, steps)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back to version %d\n", version)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := resolveURL()
		if err != nil {
			return err
		}
		version, dirty, ok, err := migrations.Version(url)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !ok {
			fmt.Fprintln(out, "no migrations applied")
			return nil
		}
		fmt.Fprintf(out, "version %d\n", version)
		if dirty {
			fmt.Fprintln(out, "warning: schema is dirty")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(upCmd, downCmd, versionCmd)
}
