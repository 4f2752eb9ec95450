package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OmriNaor/chatServer/config"
	"github.com/OmriNaor/chatServer/log"
	"github.com/OmriNaor/chatServer/node"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: chatServer [-config file] <port>")
}

func main() {
	if err := log.InitLogger(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}

	cfgPath := flag.String("config", "", "path to YAML config file")
	flag.Usage = usage
	flag.Parse()

	cfg, err := loadConfig(*cfgPath, flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	s := node.NewServer(cfg)
	s.SetTransform(node.UpperASCII)
	if err := s.Run(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the effective config: file when given, defaults
// otherwise, with a bare port argument taking precedence over the file.
// Any port outside [1, 65535] is fatal before the loop ever starts.
func loadConfig(path, portArg string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadWithDefaults(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if portArg != "" {
		port, err := config.ParsePort(portArg)
		if err != nil {
			return nil, err
		}
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
