package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"tickerd/internal/app"
	"tickerd/internal/config"
	"tickerd/internal/engine"
	"tickerd/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	defer logSvc.Close()

	eng, err := engine.NewHTTPClient(engine.Config{
		URL:      cfg.Engine.URL,
		Token:    cfg.Engine.Token,
		Timeout:  cfg.EngineTimeout(),
		Analysts: cfg.AnalystList(),
	})
	if err != nil {
		log.Error("engine setup failed", logx.Err(err))
		os.Exit(1)
	}

	a, err := app.New(cfg, eng, log)
	if err != nil {
		log.Error("startup failed", logx.Err(err))
		os.Exit(1)
	}
	if err := a.Start(ctx); err != nil {
		log.Error("startup failed", logx.Err(err))
		os.Exit(1)
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	runErr := a.Run(ctx)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := a.Stop(stopCtx); err != nil {
		log.Warn("shutdown error", logx.Err(err))
	}
	if runErr != nil {
		log.Error("scheduler failed", logx.Err(runErr))
		os.Exit(1)
	}
}
