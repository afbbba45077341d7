package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/reoring/jtdguard/internal/bindfile"
	"github.com/reoring/jtdguard/internal/server"
)

func serveCmd(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var cfgPath, bindingsPath, addr string
	var verbose bool
	fs.StringVar(&cfgPath, "config", "", "config file (default ./jtdguard.yaml when present)")
	fs.StringVar(&bindingsPath, "bindings", "", "bindings file (overrides the config)")
	fs.StringVar(&addr, "addr", "", "listen address (overrides the config)")
	fs.BoolVar(&verbose, "v", false, "enable debug logs")
	_ = fs.Parse(args)

	cfg, logger, err := loadConfig(cfgPath, "", verbose)
	if err != nil {
		errorf("%v", err)
		return 2
	}
	if bindingsPath != "" {
		cfg.Bindings = bindingsPath
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if cfg.Bindings == "" {
		errorf("no bindings file: set -bindings or bindings in the config")
		return 2
	}

	f, err := bindfile.Load(cfg.Bindings)
	if err != nil {
		errorf("%v", err)
		return 2
	}
	srv, err := server.New(cfg, f.Routes, logger)
	if err != nil {
		errorf("%v", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Start(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		return 1
	}
	return 0
}
