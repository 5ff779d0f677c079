package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wheelibin/luxman/internal/config"
	"github.com/wheelibin/luxman/internal/constants"
	lightmanager "github.com/wheelibin/luxman/internal/lightManager"
	"github.com/wheelibin/luxman/internal/mqtt"
	"github.com/wheelibin/luxman/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to config.json")
	flag.Parse()

	cfg, err := config.Load(viper.New(), *configPath)
	if err != nil {
		log.Fatal("unable to load configuration", "err", err)
	}

	// the terminal belongs to the UI, so only log to file
	logger := log.NewWithOptions(&lumberjack.Logger{
		Filename: "logs/luxman.log",
		MaxAge:   cfg.Log.MaxAgeDays,
	}, log.Options{
		Level:      log.InfoLevel,
		TimeFormat: "2006/01/02 15:04:05",
	})
	logger.Info("luxman monitor starting", "base", cfg.TopicBase)

	mqttCfg := cfg.MQTT
	mqttCfg.ClientID += "-monitor"
	client := mqtt.NewClient(logger, mqttCfg)
	if err := client.Connect(); err != nil {
		logger.Fatal("unable to connect to broker", "err", err)
	}
	defer client.Close()

	monitor := tui.NewMonitor(cfg.TopicBase)

	err = client.Subscribe(lightmanager.Topic("stat/+", cfg.TopicBase), func(topic string, payload []byte) error {
		err := monitor.HandleMessage(topic, payload)
		if err != nil {
			logger.Warn("ignoring status message", "topic", topic, "err", err)
		}
		return err
	})
	if err != nil {
		logger.Fatal("unable to subscribe", "err", err)
	}

	// ask the controller for a full snapshot to fill the table
	if err := client.Publish(lightmanager.Topic(constants.TopicGetBoot, cfg.TopicBase), []byte{}); err != nil {
		logger.Warn("unable to request boot snapshot", "err", err)
	}

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quitChannel
		monitor.Quit()
	}()

	if err := monitor.Run(); err != nil {
		logger.Error("monitor stopped", "err", err)
	}
	logger.Info("luxman monitor is closing")
}
