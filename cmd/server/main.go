package main

import (
	"fmt"
	"os"
	"time"

	"jtt808-svr/internal/ascii808"
	"jtt808-svr/internal/config"
	"jtt808-svr/internal/grpcclient"
	"jtt808-svr/internal/observability"
	"jtt808-svr/internal/relay"
	"jtt808-svr/internal/server"
	"jtt808-svr/internal/session"
	"jtt808-svr/internal/sink"
	"jtt808-svr/internal/store"
	"jtt808-svr/internal/utilities"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger()
	logger.Info("starting jtt808-svr", "listen_port", cfg.ListenPort, "print_mode", cfg.PrintMode)

	go observability.StartMetricsServer(cfg.MetricsPort)

	sinks := sink.Multi{sink.NewPrinter(os.Stdout, cfg.PrintMode, logger)}

	if redisSink, err := store.NewRedisSink(cfg.RedisAddr, 0, logger); err != nil {
		logger.Warn("redis sink disabled", "err", err)
	} else {
		sinks = append(sinks, redisSink)
	}

	if cfg.GRPCForwarder != "" {
		forwarder, err := grpcclient.NewForwarderSink(cfg.GRPCForwarder, logger)
		if err != nil {
			logger.Warn("grpc forwarder sink disabled", "err", err)
		} else {
			defer forwarder.Close()
			sinks = append(sinks, forwarder)
		}
	}

	sinks = append(sinks, relay.NewClient(cfg.RelayAddr, logger))

	speedUnit := ascii808.SpeedKnots
	if !cfg.SpeedInKnots {
		speedUnit = ascii808.SpeedKmh
	}

	sessionFactory := func(remoteAddr string) *session.Session {
		s := session.New(remoteAddr, sinks, cfg.RegisterToken)
		s.SpeedUnit = speedUnit
		return s
	}

	hexTrace := utilities.NewHexTracer(cfg.LogHex, logger)
	idleTimeout := time.Duration(cfg.IdleTimeoutSec) * time.Second

	srv := server.New(idleTimeout, logger, hexTrace, sessionFactory)
	if err := srv.Start(fmt.Sprintf(":%d", cfg.ListenPort)); err != nil {
		logger.Error("tcp server failed", "err", err)
		os.Exit(1)
	}
}
