// Command streamtts serves the real-time streaming TTS websocket
// service: text chunks in, synchronized audio and caption timing out.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxkit/streamtts/internal/config"
	"github.com/voxkit/streamtts/internal/log"
	"github.com/voxkit/streamtts/pkg/engine"
	"github.com/voxkit/streamtts/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address override (host:port)")
	engineMode := flag.String("engine", "", "Engine override: mock or proc")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *engineMode != "" {
		cfg.Engine.Mode = *engineMode
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	log.Init(cfg.LogLevel)

	synth, err := buildEngine(cfg.Engine)
	if err != nil {
		// No ready backend means the service cannot accept sessions.
		log.Error("engine initialization failed", "error", err)
		os.Exit(1)
	}
	defer synth.Close()

	listenAddr := cfg.Server.Addr()
	if *addr != "" {
		listenAddr = *addr
	}

	srv := server.New(server.Config{
		Addr:             listenAddr,
		StaticDir:        cfg.Server.StaticDir,
		TargetSampleRate: cfg.Engine.TargetSampleRate,
	}, synth)

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	log.Info("starting streamtts", "addr", listenAddr, "engine", synth.Name())
	if err := srv.Start(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// buildEngine constructs the configured backend. The choice is made
// here, once; nothing downstream inspects backend types.
func buildEngine(cfg config.EngineConfig) (engine.Synthesizer, error) {
	opts := []engine.Option{
		engine.WithVoice(cfg.Voice),
		engine.WithSpeed(cfg.Speed),
		engine.WithSampleRate(cfg.NativeSampleRate),
		engine.WithTimeout(time.Duration(cfg.TimeoutMS) * time.Millisecond),
		engine.WithLogger(log.L()),
	}

	switch cfg.Mode {
	case "proc":
		return engine.NewProc(append(opts, engine.WithCommand(cfg.Command))...)
	default:
		log.Warn("using mock speech engine; audio is a placeholder tone")
		return engine.NewMock(opts...), nil
	}
}
