package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/internal/cli"
	"github.com/aretw0/fable/internal/dto"
	"github.com/aretw0/fable/internal/service"
)

var recoverCmd = &cobra.Command{
	Use:   "recover [file]",
	Short: "Recover structured fields from raw generator output",
	Long: `Reads raw generator output from the file argument or stdin and runs it
through the recovery pipeline: direct JSON, fence and brace extraction,
repairs, lenient parsing and field patterns. --spec validates the result
against an output spec such as '[name="string", age="number"]'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, _ := cmd.Flags().GetString("spec")

		var raw string
		if len(args) == 1 {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			raw = string(data)
		} else {
			var err error
			if raw, err = cli.ReadAll(cmd.Context(), cmd.InOrStdin()); err != nil {
				return cli.HandleExecutionError(err)
			}
		}

		rt, _, _, err := buildRuntime(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		resp, err := service.New(rt.Engine).Recover(cmd.Context(), dto.RecoverRequest{Raw: raw, Spec: spec})
		if err != nil {
			return err
		}
		if err := cli.PrintJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
		if !resp.OK {
			return fmt.Errorf("recovery failed at stage %s", resp.Stage)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd)
	recoverCmd.Flags().String("spec", "", `Output spec segment, e.g. '[name="string"]'`)
}
