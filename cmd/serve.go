package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/klokku/courseplan/internal/app"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the courseplan API server",
	Long:  `Migrate the database and serve the selection, friend and calendar API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := app.NewApplication(ctx, cfg)
		if err != nil {
			log.Errorf("failed to initialize application: %v", err)
			return err
		}
		return application.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&port, "port", "p", 8181, "Port to run the server on")
}
