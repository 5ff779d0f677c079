package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wheelibin/luxman/internal/config"
	"github.com/wheelibin/luxman/internal/luxman"
)

func main() {
	configPath := flag.String("config", "", "path to config.json")
	flag.Parse()

	cfg, err := config.Load(viper.New(), *configPath)
	if err != nil {
		log.Fatal("unable to load configuration", "err", err)
	}

	var out io.Writer = os.Stderr
	if cfg.Log.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename: cfg.Log.File,
			MaxAge:   cfg.Log.MaxAgeDays,
		})
	}
	level := log.ParseLevel(cfg.Log.Level)
	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		ReportCaller:    true,
	})
	logger.Info("luxmand starting", "base", cfg.TopicBase, "broker", cfg.MQTT.Broker)

	app, err := luxman.NewLuxman(logger, cfg)
	if err != nil {
		logger.Fatal("unable to start", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Fatal("luxmand stopped", "err", err)
	}
	logger.Info("luxmand is closing")
}
