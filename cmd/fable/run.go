package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/internal/cli"
	"github.com/aretw0/fable/internal/dto"
	"github.com/aretw0/fable/internal/presentation/tui"
	"github.com/aretw0/fable/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run <template-id>",
	Short: "Run one generation turn of a template against a save",
	Long: `Loads the save, assembles the template's prompt, calls the configured
generator, recovers the output and writes the mapped fields back to the save.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		saveID, _ := cmd.Flags().GetString("save")
		asJSON, _ := cmd.Flags().GetBool("json")
		showPrompt, _ := cmd.Flags().GetBool("prompt")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		rt, _, _, err := buildRuntime(cmd, cli.BuildOptions{RequireGenerator: true})
		if err != nil {
			return err
		}
		defer rt.Close()

		resp, err := service.New(rt.Engine).Run(ctx, dto.RunRequest{TemplateID: args[0], SaveID: saveID})
		if err != nil {
			if ctx.Signal() != nil {
				cli.PrintSystemMessage(cmd.ErrOrStderr(), "Interrupted (%v).", ctx.Signal())
			}
			return cli.HandleExecutionError(err)
		}

		if asJSON {
			return cli.PrintJSON(cmd.OutOrStdout(), resp)
		}
		out, err := tui.NewRenderer(cmd.OutOrStdout())(turnMarkdown(resp, showPrompt))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		printDiagnostics(cmd, resp.Diagnostics)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("save", "s", "default", "Save ID to read from and write to")
	runCmd.Flags().Bool("json", false, "Print the full turn as JSON")
	runCmd.Flags().Bool("prompt", false, "Include the assembled prompt in the output")
}

func turnMarkdown(resp dto.RunResponse, showPrompt bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Turn %s\n\n", resp.TurnID)
	fmt.Fprintf(&b, "Recovery stage **%s** after %d attempt(s).\n\n", resp.Recovery.Stage, resp.Attempts)

	if showPrompt {
		fmt.Fprintf(&b, "## Prompt\n\n```\n%s\n```\n\n", resp.Prompt)
	}

	if !resp.Recovery.OK {
		fmt.Fprintf(&b, "## Failure\n\n%v\n\n", resp.Recovery.Result["error"])
		fmt.Fprintf(&b, "```\n%s\n```\n", resp.Raw)
		return b.String()
	}

	if len(resp.Stored) > 0 {
		b.WriteString("## Stored\n\n")
		for _, key := range sortedKeys(resp.Stored) {
			fmt.Fprintf(&b, "- **%s**: %s\n", key, resp.Stored[key].Text())
		}
		b.WriteString("\n")
	}
	if len(resp.Next) > 0 {
		b.WriteString("## Next\n\n")
		for _, key := range sortedKeys(resp.Next) {
			fmt.Fprintf(&b, "- %s: %s\n", key, strings.Join(resp.Next[key], ", "))
		}
	}
	return b.String()
}
