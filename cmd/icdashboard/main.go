package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/icplatform/dashboard/internal/api"
	"github.com/icplatform/dashboard/internal/config"
	"github.com/icplatform/dashboard/internal/dashboard"
)

var version = "dev"

var (
	configPath      = kingpin.Flag("config", "path to config.yaml; searched in the usual places when empty").Envar("ICDASH_CONFIG").String()
	listenHost      = kingpin.Flag("listen.host", "host to listen on").Envar("ICDASH_LISTEN_HOST").String()
	listenPort      = kingpin.Flag("listen.port", "port to listen on").Envar("ICDASH_LISTEN_PORT").Int()
	backendEndpoint = kingpin.Flag("backend.endpoint", "base URL of the IC Platform backend").Envar("ICDASH_BACKEND").String()
	backendFlow     = kingpin.Flag("backend.flow", "device flow: session or embedded").Envar("ICDASH_FLOW").Enum("", string(config.FlowSession), string(config.FlowEmbedded))
	logLevel        = kingpin.Flag("log.level", "trace, debug, info, warn or error").Envar("ICDASH_LOG_LEVEL").String()
	logFormat       = kingpin.Flag("log.format", "text or json").Envar("ICDASH_LOG_FORMAT").Enum("", "text", "json")
	writeConfig     = kingpin.Flag("config.write", "write the effective configuration to this path and exit").String()
)

func main() {
	kingpin.Version(version)
	kingpin.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath != "" || !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("config: %v", err)
		}
		log.Info("no config file found, using defaults")
		cfg = config.Default()
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			log.Fatalf("write config: %v", err)
		}
		log.Infof("configuration written to %s", *writeConfig)
		return
	}

	setupLogging(cfg.Log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	activity := dashboard.NewLogBuffer(cfg.UI.LogCapacity)
	api.InstallLogCapture(log.StandardLogger(), activity, log.WarnLevel)

	server, err := api.NewServer(cfg, api.Options{Registry: registry, Activity: activity})
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version": version,
		"config":  cfg.ConfigPath,
	}).Info("IC Platform dashboard starting")

	if err := server.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Info("dashboard stopped")
}

func applyFlags(cfg *config.Config) {
	if *listenHost != "" {
		cfg.Server.Host = *listenHost
	}
	if *listenPort != 0 {
		cfg.Server.Port = *listenPort
	}
	if *backendEndpoint != "" {
		cfg.Backend.Endpoint = *backendEndpoint
	}
	if *backendFlow != "" {
		cfg.Backend.Flow = config.Flow(*backendFlow)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
}

func setupLogging(lc config.LogConfig) {
	switch lc.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		log.Warnf("unknown log level %q, using info", lc.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
