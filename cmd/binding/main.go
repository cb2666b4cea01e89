// cmd/binding/main.go
package main

import (
	"context"
	"encoding/hex"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-binding/internal/binding"
	bmodbus "github.com/tamzrod/modbus-binding/internal/binding/modbus"
	"github.com/tamzrod/modbus-binding/internal/config"
	"github.com/tamzrod/modbus-binding/internal/status"
	"github.com/tamzrod/modbus-binding/internal/writer"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if len(os.Args) < 2 {
		logger.Fatal().Msg("usage: binding <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}

	if err := config.Validate(cfg); err != nil {
		logger.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	level, err := zerolog.ParseLevel(cfg.Binding.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Str("log_level", cfg.Binding.LogLevel).Msg("invalid log level")
	}
	logger = logger.Level(level)

	// --------------------
	// Engine + per-endpoint policy
	// --------------------

	var frameLog *log.Logger
	if cfg.Binding.LogFrames {
		frameLog = log.New(logger.With().Str("component", "wire").Logger(), "", 0)
	}

	engine, err := binding.New(binding.Config{
		Dial:     bmodbus.Dialer(frameLog),
		Defaults: cfg.Binding.Defaults.Connection(),
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("engine init failed")
	}

	for _, ep := range cfg.Binding.Endpoints {
		addr, err := binding.ParseEndpoint(ep.Address)
		if err != nil {
			logger.Fatal().Err(err).Str("endpoint", ep.ID).Msg("invalid endpoint")
		}
		engine.Configure(addr, ep.Connection())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run(ctx, engine, cfg.Binding, logger)

	if err := engine.Shutdown(); err != nil {
		logger.Warn().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("stopped")
}

// run performs startup writes, one read of every property, then observes
// until ctx ends.
func run(ctx context.Context, engine *binding.Engine, b config.BindingConfig, logger zerolog.Logger) {
	// --------------------
	// One-shot writes
	// --------------------

	for _, p := range b.Properties {
		if p.Write == nil {
			continue
		}
		req, err := b.Request(p)
		if err != nil {
			logger.Error().Err(err).Msg("request build failed")
			continue
		}
		if err := engine.Write(ctx, req, p.Write); err != nil {
			logger.Error().Err(err).Str("property", p.Name).Msg("write failed")
			continue
		}
		logger.Info().Str("property", p.Name).Str("value", hex.EncodeToString(p.Write)).Msg("written")
	}

	// --------------------
	// Initial reads (issued together so adjacent ranges coalesce)
	// --------------------

	type pending struct {
		name string
		op   *binding.Operation
	}
	var reads []pending
	for _, p := range b.Properties {
		req, err := b.Request(p)
		if err != nil {
			logger.Error().Err(err).Msg("request build failed")
			continue
		}
		op, err := engine.Submit(req, nil, false)
		if err != nil {
			logger.Error().Err(err).Str("property", p.Name).Msg("read rejected")
			continue
		}
		reads = append(reads, pending{name: p.Name, op: op})
	}
	for _, r := range reads {
		data, err := r.op.Wait(ctx)
		if err != nil {
			logger.Error().Err(err).Str("property", r.name).Msg("read failed")
			continue
		}
		logger.Info().Str("property", r.name).Str("value", hex.EncodeToString(data)).Msg("read")
	}

	// --------------------
	// Observations (+ mirrors)
	// --------------------

	plans, err := writer.BuildPlans(b)
	if err != nil {
		logger.Error().Err(err).Msg("mirror plan failed")
	}
	writers := make(map[string]*writer.Writer, len(plans))
	for src, plan := range plans {
		writers[src] = writer.New(plan, engine)
	}

	handles := make(map[string]binding.Handle)
	for _, p := range b.Properties {
		if !p.Observe {
			continue
		}
		req, err := b.Request(p)
		if err != nil {
			logger.Error().Err(err).Msg("request build failed")
			continue
		}

		name := p.Name
		mirror := writers[name]
		h, err := engine.Subscribe(req, p.Interval(),
			func(data []byte) {
				logger.Info().Str("property", name).Str("value", hex.EncodeToString(data)).Msg("value")
				if mirror == nil {
					return
				}
				if err := mirror.Write(ctx, data); err != nil {
					logger.Warn().Err(err).Str("property", name).Msg("mirror write failed")
				}
			},
			func(err error) {
				logger.Error().Err(err).Str("property", name).Msg("observation ended")
			},
		)
		if err != nil {
			logger.Error().Err(err).Str("property", name).Msg("subscribe failed")
			continue
		}
		handles[name] = h
	}

	// --------------------
	// Health report until shutdown
	// --------------------

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for name, h := range handles {
				if err := engine.Unsubscribe(h); err != nil {
					logger.Debug().Err(err).Str("property", name).Msg("unsubscribe")
				}
			}
			return

		case <-ticker.C:
			for _, c := range engine.Registry().Connections() {
				snap := c.Status()
				ev := logger.Info()
				if snap.Health != status.HealthOK {
					ev = logger.Warn().Str("last_error", snap.LastError)
				}
				ev.Str("endpoint", c.Endpoint().String()).
					Str("state", c.State().String()).
					Str("health", status.HealthName(snap.Health)).
					Uint16("last_error_code", snap.LastErrorCode).
					Uint16("consecutive_failures", snap.ConsecutiveFailures).
					Int("pending", c.Pending()).
					Msg("connection status")
			}
		}
	}
}
