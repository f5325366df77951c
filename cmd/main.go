package main

import (
	"os"

	"stockfeed/internal/app"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

// @title stockfeed API
// @version 1.0
// @description Exchange rate resolution and concurrent stock quote fetching.
// @BasePath /
func main() {
	configPath := flag.StringP("config", "c", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := app.Run(*configPath); err != nil {
		logrus.WithError(err).Error("Application stopped with error")
		os.Exit(1)
	}
}
