package main

import (
	"context"
	"flag"

	"github.com/ezoic/finml/internal/metrics"
	transport "github.com/ezoic/finml/internal/transport/http"
	"github.com/ezoic/finml/pipeline"
	"github.com/ezoic/finml/pkg/log"
)

func serveCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	addr := fs.String("addr", "", "listen address, overrides server.addr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	session, err := pipeline.New(sessionOptions(cfg))
	if err != nil {
		return err
	}
	recorder := metrics.New(true)
	session.Observe(recorder)

	p, err := provider(cfg)
	if err != nil {
		return err
	}

	handler := transport.NewHandler(session, p, transport.WithMaxUploadBytes(cfg.Server.MaxUploadBytes))
	srv := transport.NewServer(cfg.Server, handler, recorder.Handler())

	log.GetLogger().Info("Session started", log.SessionKey, session.ID, "provider", p.Name())
	return srv.Run(ctx)
}
