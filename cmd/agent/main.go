package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	"github.com/semanticallynull/scootershare/agent"
	"github.com/semanticallynull/scootershare/internal/o11y"
)

var cli = struct {
	ScooterID string `name:"scooter-id" env:"SCOOTER_ID" required:""`
	Port      int    `name:"port" env:"PORT" default:"65001"`
	HubAddr   string `name:"hub-addr" env:"HUB_ADDR" default:"localhost:65000"`

	// AdvertiseIP is the address the hub should push to. Empty means
	// derive it from the listener.
	AdvertiseIP string `name:"advertise-ip" env:"ADVERTISE_IP"`

	BatteryInterval time.Duration `name:"battery-interval" env:"BATTERY_INTERVAL" default:"1m"`

	OTLPEndpoint string `name:"otlp-endpoint" env:"OTLP_ENDPOINT"`
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

	obs, cleanup, err := o11y.Setup(ctx, "agent", cli.OTLPEndpoint)
	defer cleanup()
	if err != nil {
		return err
	}
	logger := obs.Logger.With("scooterID", cli.ScooterID)

	state := agent.NewState(cli.ScooterID, agent.LogDisplay{Log: logger})
	hub := agent.NewHubClient(cli.HubAddr)

	// Pull the authoritative record before serving; a hub outage at
	// boot leaves the cached defaults in place.
	if info, err := hub.Reload(ctx, cli.ScooterID); err != nil {
		logger.Warn("failed to load scooter record from hub", "error", err)
	} else {
		state.ApplyInfo(info)
	}

	lis, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(cli.Port)))
	if err != nil {
		return err
	}
	logger.Info("agent listening", "addr", lis.Addr().String())

	ip := cli.AdvertiseIP
	if ip == "" {
		ip = outboundIP(cli.HubAddr)
	}
	if ip != "" {
		if err := hub.RegisterIP(ctx, cli.ScooterID, ip); err != nil {
			logger.Warn("failed to register agent address with hub", "ip", ip, "error", err)
		}
	}

	session := &agent.Session{Log: logger, Hub: hub, State: state}
	go session.Watch(ctx)

	telemetry := &agent.Telemetry{
		Log:      logger,
		Hub:      hub,
		State:    state,
		Monitor:  &agent.BatteryMonitor{},
		Interval: cli.BatteryInterval,
	}
	go telemetry.Run(ctx)

	listener := &agent.Listener{Log: logger, State: state}
	return listener.Serve(ctx, lis)
}

// outboundIP finds the local address used to reach the hub.
func outboundIP(hubAddr string) string {
	conn, err := net.Dial("udp", hubAddr)
	if err != nil {
		return ""
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ""
	}
	return addr.IP.String()
}
