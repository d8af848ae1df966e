package cmd

import (
	"fmt"
	"os"

	"library-alert/core/config"
	"library-alert/core/database"
	"library-alert/core/logger"
	"library-alert/core/status"
	"library-alert/feature/tracking"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

// statusCmd prints the tracked state.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print tracked libraries and books",
	Long:  `Prints every tracked (Library, ISBN, Status) triple as JSON, the same listing served by GET /.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		l, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		svc := tracking.NewService(status.NewGormStore(db, cfg.Database.Table), l)
		entries, err := svc.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list status: %w", err)
		}

		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}
