package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"toolbridge/internal/adapter/github"
	mcpserver "toolbridge/internal/adapter/mcp"
	"toolbridge/internal/adapter/mongodb"
	"toolbridge/internal/adapter/tool"
	"toolbridge/internal/infra/config"
	"toolbridge/internal/infra/logger"
	"toolbridge/internal/infra/tracer"
	"toolbridge/internal/usecase"
)

const (
	serverName    = "toolbridge"
	serverVersion = "1.0.0"

	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Config
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & Tracer. Stdout carries MCP frames, so the logger must
	// never write there; config validation enforces it.
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	// 3. Backends
	pool := mongodb.NewPool(cfg.MongoDB.PoolSize, cfg.MongoDB.AcquireTimeout,
		mongodb.NewClientDialer(cfg.MongoDB, log), log)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		pool.Close(closeCtx)
	}()

	mongoExec := mongodb.NewExecutor(pool, cfg.MongoDB, cfg.Limits, log)
	githubExec := github.NewExecutor(cfg.GitHub, cfg.Limits, log)

	// 4. Tool registry & dispatcher
	registry := tool.NewRegistry(log)
	if err := registry.RegisterAll(tool.MongoDBTools(mongoExec)); err != nil {
		return fmt.Errorf("register mongodb tools: %w", err)
	}
	if err := registry.RegisterAll(tool.GitHubTools(githubExec)); err != nil {
		return fmt.Errorf("register github tools: %w", err)
	}
	dispatcher := usecase.NewDispatcher(registry, log)

	// 5. Serve. ServeStdio returns when stdin closes or on SIGINT/SIGTERM.
	srv := mcpserver.NewServer(serverName, serverVersion, dispatcher, log)
	log.Info("starting server",
		"version", serverVersion,
		"tools", len(dispatcher.Schemas()),
		"database", cfg.MongoDB.Database)
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	log.Info("server stopped")
	return nil
}
