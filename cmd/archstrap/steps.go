package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/felixgeelhaar/archstrap/internal/app"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
	"github.com/spf13/cobra"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the provisioning steps in execution order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		p, err := app.BuildPipeline(cat, app.Dependencies{}, "")
		if err != nil {
			return err
		}
		printSteps(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}

func printSteps(w io.Writer, p *execution.Pipeline) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tID\tDESCRIPTION\tPOLICY")
	for i, e := range p.Entries() {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, e.ID(), e.Description(), policy(e))
	}
	_ = tw.Flush()
}

func policy(e execution.Entry) string {
	parts := []string{"required"}
	if e.Optional() {
		parts[0] = "optional"
	}
	if e.RequiresConfirmation() {
		parts = append(parts, "confirm")
	}
	return strings.Join(parts, ", ")
}

// catalogStepIDs returns the step IDs of the built-in catalog.
func catalogStepIDs() ([]string, error) {
	cat, err := config.Default()
	if err != nil {
		return nil, err
	}
	p, err := app.BuildPipeline(cat, app.Dependencies{}, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, p.Len())
	for _, e := range p.Entries() {
		ids = append(ids, e.ID().String())
	}
	return ids, nil
}
