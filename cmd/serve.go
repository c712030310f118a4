package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anoixa/files-manager/api/core"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		withWorker, _ := cmd.Flags().GetBool("with-worker")
		RunServer(withWorker)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("with-worker", false, "Run the thumbnail worker in the same process")
}

func RunServer(withWorker bool) {
	container, err := newContainer(context.Background())
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	cfg := container.Config()

	if !withWorker && cfg.InProcessWorkerRequired() {
		log.Printf("[Worker] queue_type=%s has no external consumer, starting worker in-process", cfg.QueueType)
		withWorker = true
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	if withWorker {
		go func() {
			defer close(workerDone)
			if err := runWorker(workerCtx, container); err != nil {
				log.Printf("[Worker] Stopped with error: %v", err)
			}
		}()
	} else {
		close(workerDone)
	}

	// 启动gin
	server, cleanup := core.NewServer(container)
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if cleanup != nil {
		cleanup()
		log.Println("Cleanup tasks finished.")
	}

	stopWorker()
	select {
	case <-workerDone:
	case <-ctx.Done():
		log.Println("[Worker] Did not stop in time")
	}

	closeContainer(container)
	log.Println("Server exited successfully")
}
