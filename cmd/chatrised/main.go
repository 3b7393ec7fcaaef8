package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/matheus3301/chatrise/internal/config"
	"github.com/matheus3301/chatrise/internal/daemon"
	"github.com/matheus3301/chatrise/internal/session"
)

func main() {
	configFlag := flag.String("config", "", "config file (default ~/.chatrise/config.toml)")
	listenFlag := flag.String("listen", "", "listen address, host:port or unix:///path")
	dataFlag := flag.String("data-dir", "", "data directory (default ~/.chatrise/server)")
	consoleFlag := flag.Bool("console", true, "also log to stderr")
	flag.Parse()

	if err := config.LoadDotEnv(".env", session.DotEnvPath()); err != nil {
		fmt.Fprintf(os.Stderr, "error: load .env: %v\n", err)
		os.Exit(1)
	}

	path := *configFlag
	if path == "" {
		path = session.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}
	if *listenFlag != "" {
		cfg.Server.Listen = *listenFlag
	}
	if *dataFlag != "" {
		cfg.Server.DataDir = *dataFlag
	}

	app := fx.New(
		daemon.Module(daemon.Params{Config: cfg, Console: *consoleFlag}),
	)

	app.Run()
}
