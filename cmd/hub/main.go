package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/semanticallynull/scootershare/hub"
	"github.com/semanticallynull/scootershare/internal/mail"
	"github.com/semanticallynull/scootershare/internal/o11y"
	"github.com/semanticallynull/scootershare/store"
)

var cli = struct {
	Port      int    `name:"port" env:"PORT" default:"65000"`
	AgentPort int    `name:"agent-port" env:"AGENT_PORT" default:"65001"`
	StoreURL  string `name:"store-url" env:"STORE_URL" default:"http://localhost:8080"`

	MetricsPort  int    `name:"metrics-port" env:"METRICS_PORT" default:"9090"`
	OTLPEndpoint string `name:"otlp-endpoint" env:"OTLP_ENDPOINT"`

	OpsEmail     string `name:"ops-email" env:"OPS_EMAIL" default:"ops@scootershare.example"`
	SMTPHost     string `name:"smtp-host" env:"SMTP_HOST"`
	SMTPPort     int    `name:"smtp-port" env:"SMTP_PORT" default:"587"`
	SMTPFrom     string `name:"smtp-from" env:"SMTP_FROM"`
	SMTPPassword string `name:"smtp-password" env:"SMTP_PASSWORD"`
}{}

func main() {
	if err := run(); err != nil {
		log.Fatalf("unexpected error: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	kong.Parse(&cli)

	obs, cleanup, err := o11y.Setup(ctx, "hub", cli.OTLPEndpoint)
	defer cleanup()
	if err != nil {
		return err
	}

	var sender mail.Sender = mail.Discard{}
	if cli.SMTPHost != "" {
		sender = &mail.SMTPSender{
			Host:     cli.SMTPHost,
			Port:     cli.SMTPPort,
			From:     cli.SMTPFrom,
			Password: cli.SMTPPassword,
		}
	}

	cfg := hub.Config{
		Logger:    obs.Logger,
		Store:     store.New(cli.StoreURL),
		Agents:    hub.NewAgentClient(),
		Mail:      sender,
		AgentPort: cli.AgentPort,
		OpsEmail:  cli.OpsEmail,
		Metrics:   hub.NewMetrics(obs.Registry),
	}

	server := hub.NewServer(cfg)
	reconciler := hub.NewReconciler(cfg)

	lis, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(cli.Port)))
	if err != nil {
		return err
	}
	obs.Logger.Info("hub listening", "addr", lis.Addr().String())

	go reconciler.RunStatusPoll(ctx)
	go reconciler.RunSweep(ctx)

	metricsServ := http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(cli.MetricsPort)),
		Handler: promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsServ.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obs.Logger.Error("metrics server stopped", "error", err)
		}
	}()

	err = server.Serve(ctx, lis)

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	metricsServ.Shutdown(shutCtx)

	return err
}
