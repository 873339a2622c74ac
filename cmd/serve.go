package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"github.com/kozaktomas/classroom-monitor/internal/database"
	"github.com/kozaktomas/classroom-monitor/internal/database/postgres"
	"github.com/kozaktomas/classroom-monitor/internal/vision"
	"github.com/kozaktomas/classroom-monitor/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Classroom Monitor web server.
Browser clients start a session, post webcam frames (or pre-computed
signals) and receive attention scores and warnings. Warnings are also
pushed over Server-Sent Events, and frames can be streamed over a
WebSocket. When DATABASE_URL is set, session summaries are archived to
PostgreSQL.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// archiveEvicted persists the summaries of sessions dropped for inactivity.
func archiveEvicted(archive database.SummaryWriter) attention.EvictFunc {
	return func(summary attention.Summary) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := archive.SaveSummary(ctx, summary, database.ReasonIdle); err != nil {
			log.Printf("Failed to archive idle session %s: %v", summary.SessionID, err)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := attention.NewStore(cfg.Session.IdleTimeout)
	tracker := attention.NewTracker(cfg.Policy, store)

	detector := vision.NewRemoteDetector(cfg.Detector.URL, cfg.Detector.Timeout)
	analyzer := vision.NewRemoteAnalyzer(detector)
	fmt.Printf("Using face detector at %s\n", detector.BaseURL())

	var server *web.Server
	port, host := resolveServeHostPort(cmd)

	if cfg.ArchiveEnabled() {
		fmt.Printf("Connecting to PostgreSQL database...\n")
		pool, err := postgres.Open(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		defer pool.Close()

		repo := postgres.NewSummaryRepository(pool)
		tracker.OnEvict(archiveEvicted(repo))
		fmt.Printf("Session archive enabled (PostgreSQL)\n")
		server = web.NewServer(port, host, tracker, analyzer, repo)
	} else {
		fmt.Printf("DATABASE_URL not set, session archive disabled\n")
		server = web.NewServer(port, host, tracker, analyzer, nil)
	}

	go tracker.RunJanitor(ctx, cfg.Session.SweepInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Classroom Monitor on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
