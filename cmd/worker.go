package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/anoixa/files-manager/internal/app"
	"github.com/spf13/cobra"
)

// workerCmd 独立运行缩略图 worker
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume thumbnail jobs from the queue",
	Long: `Consume thumbnail jobs and write <fileId>_<width> artifacts next to the uploaded file.
With queue_type=memory the queue lives inside one process and "serve" consumes it itself.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		container, err := newContainer(ctx)
		if err != nil {
			log.Fatalf("Worker failed: %v", err)
		}
		defer closeContainer(container)

		if container.Config().QueueType != "redis" {
			log.Println("[Worker] Warning: in-memory queue receives no jobs from other processes")
		}

		if err := runWorker(ctx, container); err != nil {
			log.Printf("Worker stopped with error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

// runWorker 阻塞直到 ctx 取消或队列关闭
func runWorker(ctx context.Context, container *app.Container) error {
	renderer, release, err := newRenderer(container.Config().ThumbnailRenderer)
	if err != nil {
		return err
	}
	defer release()

	return container.NewWorker(renderer).Run(ctx)
}
