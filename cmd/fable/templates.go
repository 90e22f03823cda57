package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/internal/cli"
	"github.com/aretw0/fable/internal/presentation/graph"
	"github.com/aretw0/fable/internal/presentation/tui"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/prompt"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect stored templates",
}

var templatesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List template IDs",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, cfg, _, err := buildRuntime(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		ids, err := rt.Engine.Templates().List(cmd.Context())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No templates found in %s.\n", cfg.Templates)
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+id)
		}
		return nil
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <template-id>",
	Short: "Describe a template: segments, outputs and storage mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, _, _, err := buildRuntime(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		tmpl, err := rt.Engine.Templates().Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out, err := tui.NewRenderer(cmd.OutOrStdout())(templateMarkdown(tmpl))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var templatesGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the template flow as a Mermaid diagram",
	Long:  `Outputs a Mermaid diagram (graph TD) of templates linked by their next_templates mappings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		current, _ := cmd.Flags().GetString("current")
		visited, _ := cmd.Flags().GetStringSlice("visited")

		rt, _, _, err := buildRuntime(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		loader := rt.Engine.Templates()
		ids, err := loader.List(cmd.Context())
		if err != nil {
			return err
		}
		templates := make([]domain.Template, 0, len(ids))
		for _, id := range ids {
			tmpl, err := loader.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			templates = append(templates, *tmpl)
		}

		var overlay *graph.GraphOverlay
		if current != "" || len(visited) > 0 {
			overlay = &graph.GraphOverlay{VisitedTemplates: visited, CurrentTemplate: current}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(templates, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesGraphCmd)
	templatesGraphCmd.Flags().String("current", "", "Highlight the current template")
	templatesGraphCmd.Flags().StringSlice("visited", nil, "Highlight visited templates")
	templatesCmd.AddCommand(templatesLsCmd)
	templatesCmd.AddCommand(templatesShowCmd)
}

func templateMarkdown(t *domain.Template) string {
	var b strings.Builder
	title := t.ID
	if t.Name != "" {
		title = t.Name + " (" + t.ID + ")"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if t.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", t.Description)
	}

	b.WriteString("## Segments\n\n")
	for _, raw := range t.Segments {
		fmt.Fprintf(&b, "- *%s* `%s`\n", prompt.Classify(raw).Kind, raw)
	}

	if len(t.RequiredInputs) > 0 {
		b.WriteString("\n## Required inputs\n\n")
		for _, name := range t.RequiredInputs {
			fallback := domain.DefaultInputValue
			if v, ok := t.Defaults[name]; ok {
				fallback = domain.FromAny(v).Text()
			}
			fmt.Fprintf(&b, "- %s (default: %s)\n", name, fallback)
		}
	}
	if len(t.OutputStorage) > 0 {
		b.WriteString("\n## Output storage\n\n")
		for _, field := range sortedKeys(t.OutputStorage) {
			fmt.Fprintf(&b, "- %s → %s\n", field, t.OutputStorage[field])
		}
	}
	if len(t.Next) > 0 {
		b.WriteString("\n## Next templates\n\n")
		for _, field := range sortedKeys(t.Next) {
			fmt.Fprintf(&b, "- %s: %s\n", field, strings.Join(t.Next[field], ", "))
		}
	}
	return b.String()
}
