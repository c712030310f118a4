package cmd

import (
	"log"

	"github.com/anoixa/files-manager/config"
	"github.com/anoixa/files-manager/internal/app"
	"github.com/spf13/cobra"
)

// migrateCmd 建表/补齐索引
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	Run: func(cmd *cobra.Command, args []string) {
		config.InitConfig()
		cfg := config.Get()

		container := app.NewContainer(cfg)
		defer closeContainer(container)

		log.Printf("Migrating %s database...", cfg.DBType)
		if err := container.InitDatabase(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration completed successfully")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
