package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"portq/broker_server"
	"portq/broker_server/config"
	"portq/broker_server/core/catalog"
	"portq/common/logger"
)

const shutdownGrace = 10 * time.Second

func main() {
	var (
		configPath string
		mode       string
		topicName  string
		capacity   int
		count      int
	)
	flag.StringVar(&configPath, "config", "", "path to the server config json file")
	flag.StringVar(&mode, "mode", modeBroker, "broker, pub or sub")
	flag.StringVar(&topicName, "topic", "123", "topic used by the pub and sub demos")
	flag.IntVar(&capacity, "capacity", 5, "capacity requested by the pub and sub demos")
	flag.IntVar(&count, "count", 10, "number of messages the pub and sub demos exchange")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("invalid configuration: %s", err.Error()))
		os.Exit(2)
	}
	log := logger.NewConsole("[portq]", cfg.Verbose)

	switch mode {
	case modeBroker:
		os.Exit(runBroker(cfg, log))
	case modePub, modeSub:
		demo := demoOptions{host: cfg.Host, controlPort: cfg.ControlPort, topic: topicName, capacity: capacity, count: count}
		if err := runDemo(mode, demo, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("%s demo failed: %s", mode, err.Error()))
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, color.RedString("unknown mode %s", mode))
		os.Exit(2)
	}
}

func runBroker(cfg config.ServerConfig, log *logger.SimpleLogger) int {
	log.Printf("server config: %s", cfg)
	topicCatalog, err := catalog.NewTopicCatalog(cfg.Catalog)
	if err != nil {
		log.Warnf("unable to open %s catalog, using memory: %s", cfg.Catalog.Driver, err.Error())
		topicCatalog = catalog.NewInMemoryTopicCatalog()
	}
	ctx := broker_server.NewContext(cfg, topicCatalog, log)
	defer func() {
		logger.LogError(log, "Context.Close", ctx.Close())
	}()

	registry := broker_server.NewRegistry(ctx)
	if err := registry.Start(); err != nil {
		log.Errorf("unable to start broker: %s", err.Error())
		return 1
	}
	go registry.Serve()

	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	reason := RunConsole(sigCtx, os.Stdin, os.Stdout, registry)
	log.Printf("shutting down: %s", reason)
	registry.Stop()

	select {
	case <-registry.Done():
		return 0
	case <-time.After(shutdownGrace):
		log.Errorf("endpoints still accepting after %s", shutdownGrace)
		return 1
	}
}
