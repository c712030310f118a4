package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

// cleanCmd 清理存储目录中无记录引用的文件
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove storage files that no record references",
	Long: `Remove files in the storage root that no file record references.
Files younger than orphan_grace_period are kept, so uploads still in flight are not touched.
Thumbnails are kept while their image record exists.`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		ctx := context.Background()
		container, err := newContainer(ctx)
		if err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
		defer closeContainer(container)

		result, err := container.NewOrphanCleaner().Clean(ctx, dryRun)
		if err != nil {
			log.Fatalf("Clean failed: %v", err)
		}

		for _, name := range result.Orphans {
			if dryRun {
				log.Printf("[DRY-RUN] Would delete: %s", name)
			}
		}
		log.Printf("Checked %d files, %d orphans, %d removed, %d failures",
			result.Checked, len(result.Orphans), result.Removed, result.Failures)
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
}
