// eventwatch connects to the gateway event channel and streams envelopes to
// the console. Useful for verifying connectivity and watching node status
// pushes without the browser UI.
//
// Usage: go run ./cmd/eventwatch --config configs/console.example.yaml
//
// The bearer token is read from the environment variable named by
// gateway.token_env (CONSOLE_API_TOKEN by default).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/perimeterhq/console/internal/channel"
	"github.com/perimeterhq/console/internal/config"
	"github.com/perimeterhq/console/internal/gateway"
	"github.com/perimeterhq/console/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/console.example.yaml", "path to config file")
	kinds := flag.String("kinds", "node_status,tunnel_status,session_opened,session_closed", "comma-separated envelope kinds to watch")
	node := flag.String("node", "", "node ID to request push updates for")
	verbose := flag.Bool("verbose", false, "print full envelope JSON")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("eventwatch", version.String())
		return
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Log)

	tokens := gateway.EnvTokenSource(cfg.Gateway.TokenEnv)
	token, err := tokens.Token()
	if err != nil {
		logger.Error("no API token available", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mgr := channel.NewManager(
		channel.Resolver{
			Origin:   cfg.Console.Origin,
			Override: cfg.Channel.Endpoint,
		},
		channel.Policy{
			RetryDelay:       cfg.Channel.RetryDelay,
			MaxRetries:       cfg.Channel.MaxRetries,
			PingInterval:     cfg.Channel.PingInterval,
			HandshakeTimeout: cfg.Channel.HandshakeTimeout,
			WriteTimeout:     cfg.Channel.WriteTimeout,
		},
		logger,
	)

	mgr.Subscribe(channel.KindConnected, func(env channel.Envelope) {
		logger.Info("channel connected")
		if *node != "" {
			if err := mgr.SubscribeToNode(*node); err != nil {
				logger.Warn("node subscribe failed", "node", *node, "error", err)
			}
		}
	})
	mgr.Subscribe(channel.KindDisconnected, func(env channel.Envelope) {
		logger.Warn("channel disconnected")
	})
	mgr.Subscribe(channel.KindError, func(env channel.Envelope) {
		logger.Error("channel error", "payload", string(env.Payload))
	})

	printEnvelope := func(env channel.Envelope) {
		if *verbose {
			data, _ := json.MarshalIndent(env, "", "  ")
			fmt.Printf("[%s]\n%s\n", env.Kind, data)
			return
		}
		fmt.Printf("[%s] ts=%d payload=%s\n", env.Kind, env.Timestamp, env.Payload)
	}

	for _, k := range strings.Split(*kinds, ",") {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		mgr.Subscribe(channel.Kind(k), printEnvelope)
	}
	mgr.Subscribe(channel.KindUnrecognized, func(env channel.Envelope) {
		logger.Debug("unrecognized envelope kind", "kind", env.Kind)
	})

	logger.Info("connecting event channel",
		"origin", cfg.Console.Origin,
		"override", cfg.Channel.Endpoint,
	)
	mgr.Connect(token)

	<-ctx.Done()

	logger.Info("shutting down")
	mgr.Disconnect()
}
