package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/pinvault/internal/buildinfo"
	"github.com/dmitrijs2005/pinvault/internal/cli"
	"github.com/dmitrijs2005/pinvault/internal/config"
	"github.com/dmitrijs2005/pinvault/internal/logging"
	"github.com/dmitrijs2005/pinvault/internal/storage"
	"github.com/dmitrijs2005/pinvault/internal/vault"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	// keep structured service logs out of the interactive prompt unless asked for
	logWriter := io.Discard
	if os.Getenv("PINVAULT_DEBUG") != "" {
		logWriter = os.Stderr
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(logWriter, nil)))

	fl, err := storage.AcquireLock(cfg.LockFilePath())
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = fl.Unlock() }()

	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = db.Close() }()

	session := vault.NewSession()
	auth := vault.NewAuthService(db, session, logger)
	keys := vault.NewKeyService(db, session, logger)

	app := cli.NewApp(cfg, auth, keys)
	app.Run(ctx)

	auth.Lock(ctx)
}
