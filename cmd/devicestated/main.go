// devicestated reconciles Asterisk extension state into device state
// across one or more PBX servers, per SPEC_FULL §1-§6. Generalized from
// the teacher's single-server cmd/asterisk-mqtt entrypoint into a
// multi-server daemon driven by config.Config.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sweeney/devicestated/internal/ami"
	"github.com/sweeney/devicestated/internal/config"
	"github.com/sweeney/devicestated/internal/eventlog"
	"github.com/sweeney/devicestated/internal/mapping"
	"github.com/sweeney/devicestated/internal/metrics"
	"github.com/sweeney/devicestated/internal/registry"
	"github.com/sweeney/devicestated/internal/supervisor"
	"github.com/sweeney/devicestated/internal/worker"
)

// Exit codes distinguished per spec §7: 0 on graceful shutdown, 1 for a
// startup/config failure, 2 for an unexpected worker failure after the
// daemon was already running.
const (
	exitOK           = 0
	exitConfigError  = 1
	exitWorkerFailed = 2
)

func main() {
	configPath := flag.String("config", "/etc/devicestated/devicestated.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("loading config: %v", err)
		os.Exit(exitConfigError)
	}

	sink, err := buildEventLog(cfg.EventLog)
	if err != nil {
		log.Printf("configuring event log: %v", err)
		os.Exit(exitConfigError)
	}
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	m := metrics.New()
	reg := registry.New()

	sessions, err := buildSessions(cfg, reg, sink, m)
	if err != nil {
		log.Printf("configuring servers: %v", err)
		os.Exit(exitConfigError)
	}

	if cfg.Metrics.Listen != "" {
		sessions = append(sessions, func(ctx context.Context) error {
			log.Printf("metrics listening on %s", cfg.Metrics.Listen)
			return m.Serve(ctx, cfg.Metrics.Listen)
		})
	}

	if err := supervisor.Run(ctx, sessions); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(exitWorkerFailed)
	}

	log.Println("shutdown complete")
	os.Exit(exitOK)
}

// buildSessions turns each ServerConfig into a worker.Run invocation
// bound to its own AMI client and mapping rule, ready to hand to
// supervisor.Run.
func buildSessions(cfg *config.Config, reg *registry.Registry, sink eventlog.Sink, m *metrics.Metrics) ([]func(context.Context) error, error) {
	sessions := make([]func(context.Context) error, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		rule, err := mapping.Compile(s.ExtensionPattern, s.DeviceFormat)
		if err != nil {
			return nil, fmt.Errorf("server %q: %w", s.Name, err)
		}

		client := ami.New(ami.Options{
			Host:    s.Host,
			Port:    s.Port,
			Prefix:  s.Prefix,
			Timeout: s.Timeout,
		})

		wcfg := worker.Config{
			Name:          s.Name,
			Username:      s.Username,
			Secret:        s.Secret,
			Rule:          rule,
			RetryInterval: s.RetryInterval,
		}

		sessions = append(sessions, func(ctx context.Context) error {
			return worker.Run(ctx, wcfg, client, reg, sink, m)
		})
	}
	return sessions, nil
}

// buildEventLog wires the configured eventlog.Sink implementations into
// a single fan-out sink, per SPEC_FULL §6's EventLogConfig.
func buildEventLog(cfg config.EventLogConfig) (eventlog.Sink, error) {
	var sinks []eventlog.Sink

	if cfg.Console {
		sinks = append(sinks, eventlog.NewConsole())
	}

	if cfg.MQTT != nil {
		mq, err := eventlog.NewMQTT(eventlog.MQTTOptions{
			Broker:      cfg.MQTT.Broker,
			ClientID:    "devicestated",
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         1,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to MQTT broker %s: %w", cfg.MQTT.Broker, err)
		}
		sinks = append(sinks, mq)
	}

	if len(sinks) == 0 {
		sinks = append(sinks, eventlog.NewConsole())
	}

	return eventlog.NewMulti(sinks...), nil
}
