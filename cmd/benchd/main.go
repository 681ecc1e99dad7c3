package main

import (
	"log"
	"os"
	"time"

	"github.com/seantiz/benchd/internal/api"
	"github.com/seantiz/benchd/internal/config"
	"github.com/seantiz/benchd/internal/store"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("benchd: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"call_timeout_s", cfg.CallTimeoutS,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	callTimeout := time.Duration(cfg.CallTimeoutS) * time.Second
	srv := api.NewServer(cfg.ListenAddr, db, callTimeout, logger)

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
