package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hueplus2mqtt/internal/artnet"
	"hueplus2mqtt/internal/clientmqtt"
	"hueplus2mqtt/internal/config"
	"hueplus2mqtt/internal/controller"
	"hueplus2mqtt/internal/hueplus"
	"hueplus2mqtt/internal/logger"
	"hueplus2mqtt/internal/serialport"
)

var (
	configFile string
	restore    bool
)

func init() {
	flag.StringVar(&configFile, "config", "configs/conf.toml", "Path to configuration file")
	flag.BoolVar(&restore, "restore", false, "Send reset until the controller answers, then exit")
}

func main() {
	flag.Parse()
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v", err)
		os.Exit(1)
	}

	log.With(logger.Fields{"module": "logger"}).Debug("newLogger created ok")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	port, err := serialport.Open(log, cfg.Serial)
	if err != nil {
		log.With(logger.Fields{"module": "serial"}).Errorf("could not find NZXT HUE+: %v", err)
		os.Exit(1)
	}

	opts := []hueplus.SessionOption{
		hueplus.WithTimeout(cfg.Device.Timeout()),
		hueplus.WithPollInterval(cfg.Device.PollInterval()),
		hueplus.WithSettleDelay(cfg.Device.Settle()),
		hueplus.WithRestoreInterval(cfg.Device.RestoreInterval()),
	}

	if restore {
		s := hueplus.NewSession(port, log, opts...)
		if err := s.Restore(ctx); err != nil {
			log.With(logger.Fields{"module": "hueplus"}).Errorf("restore failed: %v", err)
			os.Exit(1)
		}
		return
	}

	session, err := hueplus.Connect(ctx, port, log, opts...)
	if err != nil {
		log.With(logger.Fields{"module": "hueplus"}).Errorf("error while connecting to the NZXT HUE+. %v", err)
		os.Exit(1)
	}
	log.With(logger.Fields{"module": "hueplus"}).Debug("session created ok")

	ctrl := controller.New(log, session)

	client := clientmqtt.NewClient(log, ConvertConfigClientMQTT(cfg.MQTT))
	ctrl.Subscribe(client)
	log.With(logger.Fields{"module": "mqtt"}).Debug("NewClient created ok")

	var mirror artnet.Mirror
	if cfg.ArtNet.Enabled {
		a, err := artnet.NewController(log, ConvertConfigArtNet(cfg.ArtNet))
		if err != nil {
			log.With(logger.Fields{"module": "art-net"}).Errorf("error while creating a new controller art-net. %v", err)
			os.Exit(1)
		}
		if err = a.Start(ctx); err != nil {
			log.Error("failed to start art-net service:", err.Error())
			os.Exit(1)
		}
		mirror = a
		ctrl.Subscribe(mirror)
	}

	// Очередь команд: одна команда в обработке, остальные ждут.
	size := cfg.Queue.Size
	if size < 1 {
		size = 1
	}
	cmds := make(chan controller.Command, size)
	ctrl.Start(ctx, cmds)

	if err = client.Start(ctx, cmds); err != nil {
		log.Error("failed to start MQTT service:", err.Error())
		cancel()
	} else {
		ctrl.Announce()
	}

	<-ctx.Done()
	<-ctrl.Done()

	if err := client.Stop(); err != nil {
		log.Error("failed to stop MQTT service:", err.Error())
	}

	if mirror != nil {
		mirror.Stop()
	}

	log.Info("shutdown complete")
}

// ConvertConfigClientMQTT преобразует структуры.
func ConvertConfigClientMQTT(cfg config.MQTTConf) clientmqtt.MQTTConf {
	return clientmqtt.MQTTConf{
		ClientID:    cfg.ClientID,
		Schema:      "tcp",
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		Qos:         cfg.Qos,
		TopicPrefix: cfg.TopicPrefix,
	}
}

// ConvertConfigArtNet преобразует структуры.
func ConvertConfigArtNet(cfg config.ArtNetConf) artnet.Conf {
	return artnet.Conf{
		CIDR:         cfg.CIDR,
		Universe:     cfg.Universe,
		StartChannel: cfg.StartChannel,
		MaxFPS:       cfg.MaxFPS,
	}
}
