package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/anoixa/files-manager/config"
	"github.com/anoixa/files-manager/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "files-manager",
	Short: "A simple file storage service with thumbnail generation",
	Run: func(cmd *cobra.Command, args []string) {
		serveCmd.Run(cmd, args)
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (eg: /etc/files-manager/config.yaml)")
	err := viper.BindPFlag("config_file_path", rootCmd.PersistentFlags().Lookup("config"))
	if err != nil {
		return
	}
}

// newContainer 加载配置并初始化全部依赖
func newContainer(ctx context.Context) (*app.Container, error) {
	config.InitConfig()
	container := app.NewContainer(config.Get())
	if err := container.Init(ctx); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	return container, nil
}

func closeContainer(container *app.Container) {
	if err := container.Close(); err != nil {
		log.Printf("Error closing container: %v", err)
	}
}
