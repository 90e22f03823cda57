package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/internal/cli"
	"github.com/aretw0/fable/internal/dto"
	"github.com/aretw0/fable/internal/service"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <template>",
	Short: "Expand the placeholders of a template string",
	Long: `Resolves every {...} placeholder in the given text against the attributes
passed with --attr, layered over a stored save when --save is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringArray("attr")
		saveID, _ := cmd.Flags().GetString("save")
		asJSON, _ := cmd.Flags().GetBool("json")

		attrs, err := parseAttrs(pairs)
		if err != nil {
			return err
		}
		rt, _, _, err := buildRuntime(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		resp, err := service.New(rt.Engine).Resolve(cmd.Context(), dto.ResolveRequest{
			Template:   args[0],
			Attributes: attrs,
			SaveID:     saveID,
		})
		if err != nil {
			return err
		}

		if asJSON {
			return cli.PrintJSON(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
		printDiagnostics(cmd, resp.Diagnostics)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	addContextFlags(resolveCmd)
}

func addContextFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("attr", "a", nil, "Attribute as key=value (repeatable)")
	cmd.Flags().StringP("save", "s", "", "Save ID whose attributes form the base context")
	cmd.Flags().Bool("json", false, "Print the full response as JSON")
}
