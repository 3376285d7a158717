package main

import (
	"context"
	"flag"
	"os"

	"github.com/tomvanoss/chorewheel/internal/backup"
	"github.com/tomvanoss/chorewheel/internal/config"
	"github.com/tomvanoss/chorewheel/internal/database"
	"github.com/tomvanoss/chorewheel/internal/logging"
)

func main() {
	dbPath := flag.String("db", "", "path to the live database (default: CHOREWHEEL_DB_PATH)")
	target := flag.String("target", "", "snapshot path (default: dated file next to the database)")
	flag.Parse()

	logger := logging.Setup(os.Getenv("CHOREWHEEL_LOG_LEVEL"))
	cfg := config.Load(logger)
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	mgr := backup.NewManager(backup.Config{
		DBPath:     cfg.DBPath,
		Passphrase: cfg.BackupPassphrase,
		S3: backup.S3Config{
			Endpoint:  cfg.BackupEndpoint,
			Bucket:    cfg.BackupBucket,
			Region:    cfg.BackupRegion,
			AccessKey: cfg.BackupKeyID,
			SecretKey: cfg.BackupSecret,
		},
	}, db, logger)

	if err := mgr.Run(context.Background(), *target); err != nil {
		logger.Error("backup failed", "error", err)
		os.Exit(1)
	}
}
