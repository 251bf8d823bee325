package main

import (
	"flag"
	"os"

	"risk_guard/internal/bootstrap"
	"risk_guard/pkg/logging"
)

var configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		*configFile = envConfig
	}

	app, err := bootstrap.NewApp(*configFile)
	if err != nil {
		logger, _ := logging.NewZapLogger("INFO")
		logger.Fatal("Bootstrap failed", "config", *configFile, "error", err)
	}

	app.Logger.Info("Starting risk guard service", "config", *configFile)

	if err := app.Run(app.Runners()...); err != nil {
		app.Logger.Error("Service exited with error", "error", err)
	}
	if err := app.Close(); err != nil {
		app.Logger.Error("Shutdown cleanup failed", "error", err)
	}
}
