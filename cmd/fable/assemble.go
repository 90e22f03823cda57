package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/internal/cli"
	"github.com/aretw0/fable/internal/dto"
	"github.com/aretw0/fable/internal/service"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble [segment...]",
	Short: "Assemble a prompt from segments or a stored template",
	Long: `Classifies each segment as information "(...)", instruction "<...>" or output
spec "[name=\"type\"]", resolves placeholders and prints the prompt with its
output contract. Use --template to assemble a stored template instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		templateID, _ := cmd.Flags().GetString("template")
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

		resp, err := service.New(rt.Engine).Assemble(cmd.Context(), dto.AssembleRequest{
			Segments:   args,
			TemplateID: templateID,
			Attributes: attrs,
			SaveID:     saveID,
		})
		if err != nil {
			return err
		}

		if asJSON {
			return cli.PrintJSON(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Prompt)
		printDiagnostics(cmd, resp.Diagnostics)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(assembleCmd)
	addContextFlags(assembleCmd)
	assembleCmd.Flags().StringP("template", "t", "", "Stored template ID")
}
