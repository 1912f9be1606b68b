// File path: cmd/docsyncd/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/docsync-dev/docsync/internal/api"
	"github.com/docsync-dev/docsync/internal/common"
	"github.com/docsync-dev/docsync/internal/data/orchestrator"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("docsync: .env file not loaded", "error", err)
	} else {
		logger.Info("docsync: environment loaded from .env")
	}

	addr := flag.String("addr", ":8082", "listen address")
	dbPath := flag.String("db", defaultDBPath(), "path to the SQLite manifest database")
	syncInterval := flag.String("sync-interval", "", "interval between scheduled reconciliation cycles (e.g. 6h, 24h)")
	syncTimeout := flag.String("sync-timeout", "", "timeout for a single reconciliation cycle")
	maxParallel := flag.Int("max-parallel", 0, "maximum repositories reconciled concurrently (0 uses defaults)")
	flag.Parse()

	logger.Info("docsync: startup initiated", "addr", *addr, "db", *dbPath)

	orchCfg, err := orchestrator.LoadConfig()
	if err != nil {
		logger.Error("docsync: orchestrator config load failed", "error", err)
		fmt.Println("orchestrator config error:", err)
		os.Exit(1)
	}
	if trimmed := strings.TrimSpace(*dbPath); trimmed != "" {
		orchCfg.SQLitePath = trimmed
	}
	if trimmed := strings.TrimSpace(*syncInterval); trimmed != "" {
		dur, err := time.ParseDuration(trimmed)
		if err != nil {
			logger.Error("docsync: invalid sync interval", "value", trimmed, "error", err)
			fmt.Println("sync interval error:", err)
			os.Exit(1)
		}
		orchCfg.SyncInterval = dur
	}
	if trimmed := strings.TrimSpace(*syncTimeout); trimmed != "" {
		dur, err := time.ParseDuration(trimmed)
		if err != nil {
			logger.Error("docsync: invalid sync timeout", "value", trimmed, "error", err)
			fmt.Println("sync timeout error:", err)
			os.Exit(1)
		}
		orchCfg.SyncTimeout = dur
	}
	if *maxParallel > 0 {
		orchCfg.MaxParallel = *maxParallel
	}

	orch, err := orchestrator.New(ctx, orchCfg)
	if err != nil {
		logger.Error("docsync: orchestrator initialization failed", "error", err)
		fmt.Println("orchestrator error:", err)
		os.Exit(1)
	}
	defer orch.Close()

	if idx := orch.Index(); idx != nil && idx.Available() {
		logger.Info("docsync: vector index available")
	} else {
		logger.Warn("docsync: vector index unreachable, runs will fail until it recovers")
	}

	server, err := api.NewServer(ctx, orch)
	if err != nil {
		logger.Error("docsync: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("docsync: server listening", "addr", *addr, "health", "/healthz", "metrics", "/metrics")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("docsync: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("docsync: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

func defaultDBPath() string {
	return filepath.Join("data", "manifests.db")
}
