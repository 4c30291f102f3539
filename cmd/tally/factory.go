package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/mpellerin/tally/internal/agent"
	"github.com/mpellerin/tally/internal/checkpoint"
	"github.com/mpellerin/tally/internal/config"
	"github.com/mpellerin/tally/internal/crm"
	"github.com/mpellerin/tally/internal/email"
	"github.com/mpellerin/tally/internal/llm"
	"github.com/mpellerin/tally/internal/orchestrator"
	"github.com/mpellerin/tally/internal/reflexion"
	"github.com/mpellerin/tally/internal/stream"
)

// app bundles the wired orchestrator and its supporting services.
type app struct {
	cfg   *config.Config
	orch  *orchestrator.Orchestrator
	hub   *stream.Hub
	store checkpoint.Store
	close func()
}

// buildApp loads configuration and wires the full orchestration stack.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return buildAppFromConfig(ctx, cfg)
}

func buildAppFromConfig(ctx context.Context, cfg *config.Config) (*app, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	store, err := checkpoint.OpenStore(cfg.Checkpoint.Backend, cfg.Checkpoint.Path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}

	logger, err := orchestrator.NewDebugLogger(cfg.Log.Path)
	if err != nil {
		return nil, err
	}

	var hub *stream.Hub
	if cfg.Stream.Addr != "" {
		hub = stream.NewHub()
		go hub.Run(ctx)
		server := &http.Server{Addr: cfg.Stream.Addr, Handler: hub.Handler()}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("stream server on %s stopped: %v", cfg.Stream.Addr, err)
			}
		}()
	}

	onEvent := func(e agent.Event) {
		logger.LogEvent(e)
		if hub != nil {
			hub.Publish(e)
		}
	}

	root := orchestrator.BuildRoster(orchestrator.RosterConfig{
		Provider:      provider,
		CRM:           crm.NewFake(),
		Email:         email.NewSeededStore(),
		Sensitive:     cfg.Approvals.Sensitive,
		Monitored:     cfg.Review.Monitored,
		MaxRejections: cfg.Review.MaxRejections,
		OnEvent:       onEvent,
	})

	opts := []orchestrator.Option{orchestrator.WithLogger(logger)}
	if cfg.Planner.Enabled {
		opts = append(opts, orchestrator.WithPlanner(reflexion.New(provider, cfg.Planner.MaxCritiques)))
	}

	return &app{
		cfg:   cfg,
		orch:  orchestrator.New(root, store, opts...),
		hub:   hub,
		store: store,
		close: func() {
			logger.Close()
			if s, ok := store.(*checkpoint.SQLiteStore); ok {
				s.Close()
			}
		},
	}, nil
}

// buildProvider selects the completion backend from configuration.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return llm.NewAnthropicProvider(llm.AnthropicConfig{
			Model:         anthropic.Model(cfg.Anthropic.Model),
			APIKey:        cfg.Anthropic.APIKey,
			UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		})
	case "openai":
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			Model:  cfg.OpenAI.Model,
			APIKey: cfg.OpenAI.APIKey,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q (want anthropic or openai)", cfg.Provider)
	}
}
