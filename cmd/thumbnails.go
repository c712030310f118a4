package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

// thumbnailsCmd 为缺少缩略图的图片重新入队
var thumbnailsCmd = &cobra.Command{
	Use:   "thumbnails",
	Short: "Enqueue thumbnail jobs for images with missing artifacts",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		container, err := newContainer(ctx)
		if err != nil {
			log.Fatalf("Thumbnail scan failed: %v", err)
		}
		defer closeContainer(container)

		if container.Config().QueueType != "redis" {
			log.Println("[ThumbnailScanner] Warning: jobs on the in-memory queue are lost when this command exits")
		}

		result, err := container.NewThumbnailScanner().Scan(ctx)
		if err != nil {
			log.Fatalf("Thumbnail scan failed: %v", err)
		}
		log.Printf("Scanned %d images, enqueued %d jobs", result.Scanned, result.Enqueued)
	},
}

func init() {
	rootCmd.AddCommand(thumbnailsCmd)
}
