package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmmoran/phptestgen/internal/output"
	"github.com/cmmoran/phptestgen/pkg/action/snapshot"
)

func init() {
	rootCmd.AddCommand(NewIndexCommand(), NewRunsCommand())
}

func NewIndexCommand() *cobra.Command {
	var out string

	// indexCmd represents the phptestgen index command
	var indexCmd = &cobra.Command{
		Use:   "index",
		Short: "dump reflection metadata",
		Long:  "Index the project sources and write the reflection registry as YAML",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c)
			if err != nil {
				return err
			}
			n, err := snapshot.Reflection(c.Context(), opts, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Reflection of %d classes written to '%s'.\n", n, out)
			return nil
		},
	}
	addGeneratorFlags(indexCmd)
	indexCmd.Flags().StringVarP(&out, "output", "o", "reflection.yaml", "dump file, relative to the project root")
	return indexCmd
}

func NewRunsCommand() *cobra.Command {
	var diff bool

	// runsCmd represents the phptestgen runs command
	var runsCmd = &cobra.Command{
		Use:   "runs",
		Short: "list recorded runs",
		Long:  "List the generation runs recorded in the manifest, or diff the last two",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c)
			if err != nil {
				return err
			}
			fsys := output.Base(opts.Root)
			if diff {
				d, err := snapshot.DiffLastRuns(fsys, opts.Manifest)
				if err != nil {
					return err
				}
				fmt.Fprint(c.OutOrStdout(), d)
				return nil
			}
			m, err := snapshot.List(fsys, opts.Manifest)
			if err != nil {
				return err
			}
			for _, r := range m.Runs {
				fmt.Fprintf(c.OutOrStdout(), "%s  %s  %-7s  %-8s  %d files\n", r.Time.Format(time.RFC3339), r.ID, r.Command, r.Backend, len(r.Files))
			}
			return nil
		},
	}
	addGeneratorFlags(runsCmd)
	runsCmd.Flags().BoolVarP(&diff, "diff", "d", false, "diff the files of the last two runs")
	return runsCmd
}
