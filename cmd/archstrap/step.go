package main

import (
	"github.com/spf13/cobra"
)

var stepCmd = &cobra.Command{
	Use:   "step <id>",
	Short: "Run a single provisioning step",
	Long: `Step runs one step from the catalog through the same checks,
confirmation and failure policy as a full run.

Use it to retry a step that failed; 'archstrap steps' lists the IDs.`,
	Example: `  sudo archstrap step shell:login
  sudo archstrap step nvidia:driver --interactive`,
	Args: cobra.ExactArgs(1),
	ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ids, err := catalogStepIDs()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProvisioning(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(stepCmd)
}
