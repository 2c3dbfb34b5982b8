package cmd

import (
	"fmt"

	"github.com/hireloop/interview-coach/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration file",
	Long: `Creates a default configuration file at ~/.interview-coach/config.json.

Edit the file to set your API key, or export OPENAI_API_KEY instead.`,
	RunE: runInit,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) (err error) {
	err = config.InitConfig(getConfigFile())
	if err != nil {
		err = fmt.Errorf("failed to create config: %w", err)
		return err
	}

	fmt.Println("Configuration file created. Set openai_api_key before running an interview.")

	return err
}
