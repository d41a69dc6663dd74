// Command mdingest mirrors remote JSON metadata files into database tables.
package main

import (
	"context"
	"os"

	"github.com/empirf/mdingest/internal/adapters/driving/cli"
	"github.com/empirf/mdingest/internal/config"
	"github.com/empirf/mdingest/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A .env file in the working directory may carry connection settings.
	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Warn("reading .env: %v", err)
	}

	cli.SetVersion(version)
	cli.SetFactory(cli.Factory{
		Watch:  buildWatcher,
		Status: buildStatus,
	})

	err := cli.ExecuteContext(context.Background())
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
