// cmd/flowlogger/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/flowmeter-logger/internal/api"
	"github.com/tamzrod/flowmeter-logger/internal/config"
	"github.com/tamzrod/flowmeter-logger/internal/monitor"
	"github.com/tamzrod/flowmeter-logger/internal/poller"
	"github.com/tamzrod/flowmeter-logger/internal/store"
)

func main() {
	log := logrus.New()

	if len(os.Args) < 2 {
		log.Fatal("usage: flowlogger <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	config.Normalize(cfg)
	l := cfg.Logger

	setupLogger(log, l.Log)

	// --------------------
	// Build the pipeline
	// --------------------

	st := store.New(l.Log.Dir, l.Line)
	defer st.Close()

	notify := func(res poller.CycleResult) {
		if res.Err != nil {
			log.WithError(res.Err).Warn("poll cycle failed")
			return
		}
		log.WithFields(logrus.Fields{
			"instantaneous_flow": res.Sample.InstantFlow,
			"accumulated_flow":   res.Sample.AccumFlow,
			"temperature_1":      res.Sample.Temp1,
			"temperature_2":      res.Sample.Temp2,
		}).Debug("sample recorded")
	}

	ctrl, client, err := poller.Build(l, st, notify)
	if err != nil {
		log.Fatalf("poller build failed: %v", err)
	}
	defer ctrl.Stop()

	log.WithFields(logrus.Fields{
		"line":     l.Line,
		"endpoint": client.Endpoint(),
		"interval": ctrl.Interval().String(),
		"log_file": st.LogPath(),
	}).Info("flowlogger configured")

	// --------------------
	// Observability
	// --------------------

	if l.Metrics.Enabled {
		monitor.NewMonitor(log).Start(l.Metrics.Listen)
	}

	// --------------------
	// Control / export surface
	// --------------------

	srv := api.NewServer(log, ctrl, st, client)

	httpServer := &http.Server{
		Addr:           l.HTTP.Listen,
		Handler:        srv.Router(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.WithField("listen", l.HTTP.Listen).Info("http server started")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	if l.Poll.Autostart {
		ctrl.Start()
		log.Info("polling autostarted")
	}

	// --------------------
	// Shutdown
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	ctrl.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func setupLogger(log *logrus.Logger, lc config.LogConfig) {
	if lvl, err := logrus.ParseLevel(lc.Level); err == nil {
		log.SetLevel(lvl)
	}
	if lc.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
}
