package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/matheus3301/chatrise/internal/config"
	"github.com/matheus3301/chatrise/internal/logging"
	"github.com/matheus3301/chatrise/internal/rpc"
	"github.com/matheus3301/chatrise/internal/session"
	"github.com/matheus3301/chatrise/internal/tui"
	"github.com/matheus3301/chatrise/internal/tui/client"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	serverFlag := flag.String("server", "", "server address (overrides config)")
	noStartFlag := flag.Bool("no-start", false, "do not start a local server when none is running")
	flag.Parse()

	_ = config.LoadDotEnv(".env", session.DotEnvPath())

	profileName := session.Resolve(*profileFlag)
	if err := session.ValidateName(profileName); err != nil {
		fail(err)
	}
	if err := session.EnsureDir(profileName); err != nil {
		fail(err)
	}

	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		fail(fmt.Errorf("load config: %w", err))
	}
	target := cfg.Client.Server
	if *serverFlag != "" {
		target = *serverFlag
	}

	logger, err := logging.New(logging.Options{
		Path:  session.LogPath(profileName),
		Level: cfg.Server.LogLevel,
	}, zap.String("component", "chatrisetui"), zap.String("profile", profileName))
	if err != nil {
		fail(fmt.Errorf("init logger: %w", err))
	}
	defer func() { _ = logger.Sync() }()

	// Probe the server; auto-start a local one if needed.
	if !probeServer(target) {
		if *noStartFlag || !isLocal(target) {
			fail(fmt.Errorf("server %s is not reachable", target))
		}
		fmt.Fprintf(os.Stderr, "server not running at %s, starting...\n", target)
		if err := startServer(target); err != nil {
			fail(fmt.Errorf("failed to start server: %w", err))
		}
		if !waitForServer(target, 10*time.Second) {
			fail(errors.New("server did not become ready"))
		}
	}

	token, err := session.LoadToken(profileName)
	if err != nil && !errors.Is(err, session.ErrNoToken) {
		fail(err)
	}

	c, err := client.New(target, token)
	if err != nil {
		fail(fmt.Errorf("connect to server: %w", err))
	}
	defer func() { _ = c.Close() }()

	app := tui.NewApp(tui.Options{
		Client:            c,
		Profile:           profileName,
		Server:            target,
		HeartbeatInterval: cfg.Presence.HeartbeatInterval,
		Logger:            logger,
		SaveToken: func(token string) error {
			if token == "" {
				return session.ClearToken(profileName)
			}
			return session.SaveToken(profileName, token)
		},
	})
	logger.Info("tui starting", zap.String("server", target))
	if err := app.Run(); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// probeServer reports whether a server answers gRPC at target. An
// unauthenticated Login is enough: any reply other than Unavailable means
// the server is up.
func probeServer(target string) bool {
	c, err := client.New(target, "")
	if err != nil {
		return false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = c.Auth.Login(ctx, &rpc.LoginRequest{})
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return false
	}
	return true
}

// isLocal reports whether target is a unix socket or a loopback address.
func isLocal(target string) bool {
	if strings.HasPrefix(target, "unix://") {
		return true
	}
	host, _, err := net.SplitHostPort(target)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func startServer(listen string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	chatrised := filepath.Join(filepath.Dir(executable), "chatrised")

	if _, err := os.Stat(chatrised); err != nil {
		chatrised = "chatrised"
	}

	cmd := exec.Command(chatrised, "--listen", listen, "--console=false")
	// Inherit stderr so server startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

// waitForServer polls the server with a real gRPC call, not just a socket connect.
func waitForServer(target string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probeServer(target) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
