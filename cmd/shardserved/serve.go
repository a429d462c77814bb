package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shardserve/shardhttp/internal/config"
	"github.com/shardserve/shardhttp/internal/wsframe"
	"github.com/shardserve/shardhttp/pkg/chirouter"
	"github.com/shardserve/shardhttp/pkg/shardhttp"
)

func serveCmd() *cobra.Command {
	var (
		port           int
		shards         int
		metricsAddress string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		Long: `Start the shard-local HTTP/WebSocket server.

Examples:
  shardserved serve
  shardserved serve --port=8080
  shardserved serve --shards=4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, shards, metricsAddress)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from shardhttp.json, else 10000)")
	cmd.Flags().IntVar(&shards, "shards", 0, "Number of shards (default from shardhttp.json, else one per GOMAXPROCS)")
	cmd.Flags().StringVar(&metricsAddress, "metrics-address", "", "Address to export Prometheus metrics on (disabled if empty)")

	return cmd
}

func runServe(port, shards int, metricsAddress string) error {
	cfg, err := config.LoadFromWorkingDir(".")
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Address = fmt.Sprintf(":%d", port)
	}
	if shards > 0 {
		cfg.Shards = shards
	}
	if metricsAddress != "" {
		cfg.MetricsAddress = metricsAddress
	}

	logger := slog.Default()

	controller := shardhttp.Start(shardhttp.ControllerOptions{
		Name:          cfg.Name,
		Shards:        cfg.Shards,
		QueueCapacity: cfg.QueueCapacity,
		Logger:        logger,
		NewWSConn: func(conn net.Conn, br *bufio.Reader, bw *bufio.Writer) shardhttp.WSConn {
			return wsframe.NewConn(conn, br, bw)
		},
	})

	controller.SetRoutes(func(s *shardhttp.Server) {
		router := chirouter.New()
		registerDemoRoutes(router, logger)
		s.SetRoutes(router)
	})

	if cfg.MetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	if err := controller.Listen(cfg.Address); err != nil {
		return err
	}

	printBanner()
	info("listening on %s", cfg.Address)
	info("shards: %d", len(controller.Servers()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	info("shutting down...")
	controller.Stop()
	return nil
}

// registerDemoRoutes mirrors the minimal default routes a running binary
// needs to be demoable: a hello handler at / and an echo WebSocket
// handler at /ws.
func registerDemoRoutes(router *chirouter.Router, logger *slog.Logger) {
	router.Get("/", func(req *shardhttp.Request) *shardhttp.Reply {
		return shardhttp.NewReply(200, []byte("hello"))
	})

	router.WS("/ws", func(conn shardhttp.WSConn, req *shardhttp.Request) {
		for {
			opcode, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(opcode, payload); err != nil {
				logger.Warn("ws write error", "error", err)
				return
			}
		}
	})
}
