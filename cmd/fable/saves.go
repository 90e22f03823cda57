package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/internal/cli"
	"github.com/aretw0/fable/pkg/domain"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Manage stored saves",
	Long:  `List, inspect, and remove the attribute sets stored by the configured saves driver.`,
}

var savesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all saves",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, _, _, err := buildRuntime(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		ids, err := rt.Engine.Saves().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing saves: %w", err)
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saves found.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+id)
		}
		return nil
	},
}

var savesInspectCmd = &cobra.Command{
	Use:   "inspect <save-id>",
	Short: "Print the attributes of a save",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, _, _, err := buildRuntime(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		attrs, err := rt.Engine.Saves().Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading save '%s': %w", args[0], err)
		}
		return cli.PrintJSON(cmd.OutOrStdout(), attrs)
	},
}

var savesSetCmd = &cobra.Command{
	Use:   "set <save-id> key=value...",
	Short: "Set attributes on a save, creating it if needed",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		updates, err := parseAttrs(args[1:])
		if err != nil {
			return err
		}
		rt, _, _, err := buildRuntime(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		return rt.Engine.Saves().Update(cmd.Context(), args[0], func(_ context.Context, attrs map[string]domain.Value) (map[string]domain.Value, error) {
			for k, v := range updates {
				attrs[k] = v
			}
			return attrs, nil
		})
	},
}

var savesRmCmd = &cobra.Command{
	Use:   "rm <save-id>...",
	Short: "Remove one or more saves",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, _, _, err := buildRuntime(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		var errs []error
		for _, id := range args {
			if err := rt.Engine.Saves().Delete(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed save '%s'\n", id)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(savesCmd)
	savesCmd.AddCommand(savesLsCmd)
	savesCmd.AddCommand(savesInspectCmd)
	savesCmd.AddCommand(savesSetCmd)
	savesCmd.AddCommand(savesRmCmd)
}
