package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/hsuden/wellatlas/cnf"
	"github.com/hsuden/wellatlas/core"
	"github.com/hsuden/wellatlas/db"
)

func main() {
	configPath := os.Getenv("WELLATLAS_CONFIG")
	if configPath == "" {
		configPath = "cnf/config.cfg"
	}
	raw, err := cnf.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg, err := cnf.ParseConfig(raw)
	if err != nil {
		log.Fatalf("parsing config: %v", err)
	}
	core.SetLogLevel(cfg.LogLevel)
	db.SetVerbose(cfg.LogLevel == "debug")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}

	database, err := db.NewDB(raw)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	if err := database.EnsureSchema(); err != nil {
		log.Fatalf("ensuring schema: %v", err)
	}

	if err := core.LoadTemplates("templates"); err != nil {
		log.Fatalf("loading templates: %v", err)
	}

	app := core.NewApp(cfg, raw, database)
	defer app.Close()

	go app.StartupBackup(context.Background())

	addr := ":" + cfg.Port
	core.Infof("wellatlas listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, app.Routes()))
}
