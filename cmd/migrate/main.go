package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/noah-isme/counseling-api/pkg/config"
	"github.com/noah-isme/counseling-api/pkg/database"
	"github.com/noah-isme/counseling-api/pkg/logger"
)

func main() {
	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-steps N] up|down|version\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	sugar := logr.Sugar()

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect database", "error", err)
	}
	migrator, err := database.NewMigrator(db)
	if err != nil {
		sugar.Fatalw("failed to init migrator", "error", err)
	}
	defer migrator.Close() //nolint:errcheck

	switch flag.Arg(0) {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down(*steps)
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = migrator.Version()
		if err == nil {
			sugar.Infow("schema version", "version", version, "dirty", dirty)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		sugar.Fatalw("migration failed", "command", flag.Arg(0), "error", err)
	}
	sugar.Infow("migration complete", "command", flag.Arg(0))
}
