package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/phptestgen/pkg/action/generate"
)

func init() {
	rootCmd.AddCommand(NewClassCommand(), NewProjectCommand())
}

func NewClassCommand() *cobra.Command {
	// classCmd represents the phptestgen class command
	var classCmd = &cobra.Command{
		Use:   "class <FQN|file.php>...",
		Short: "generate the tests of classes",
		Long:  "Generate the unit test, mock helpers and data provider of each named class",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c)
			if err != nil {
				return err
			}
			return generate.Class(c.Context(), opts, c.OutOrStdout(), args...)
		},
	}
	addGeneratorFlags(classCmd)
	return classCmd
}

func NewProjectCommand() *cobra.Command {
	// projectCmd represents the phptestgen project command
	var projectCmd = &cobra.Command{
		Use:   "project",
		Short: "generate the tests of a project",
		Long:  "Generate unit tests for every class under the configured sources, the base test case and optionally phpunit.xml",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if err := viper.BindPFlag("phpunit_config", c.Flags().Lookup("phpunit-config")); err != nil {
				return err
			}
			if err := viper.BindPFlag("sources", c.Flags().Lookup("sources")); err != nil {
				return err
			}
			opts, err := loadOptions(c)
			if err != nil {
				return err
			}
			return generate.Project(c.Context(), opts, c.OutOrStdout())
		},
	}
	addGeneratorFlags(projectCmd)
	projectCmd.Flags().String("phpunit-config", "", "write a phpunit.xml with one suite per module to this path")
	projectCmd.Flags().StringSliceP("sources", "s", []string{"src/**/*.php"}, "globs of classes to generate tests for")
	return projectCmd
}
