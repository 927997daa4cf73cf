package cmd

import (
	"os"

	"github.com/klokku/courseplan/internal/config"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "courseplan",
	Short: "Course selection and weekly calendar planner",
	Long: `courseplan keeps track of the course sections a student has selected and
lays them out on a weekly calendar. It runs the API server and a command line
client for it.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the configuration file")
}

func loadConfig() (config.Application, error) {
	return config.Load(configPath)
}
