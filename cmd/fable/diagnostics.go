package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/pkg/domain"
)

// printDiagnostics lists diagnostics on stderr so stdout stays pipeable.
func printDiagnostics(cmd *cobra.Command, diags []domain.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", d.Error())
	}
}
