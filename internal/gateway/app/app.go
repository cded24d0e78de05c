// Package app assembles the API process: config, stores, generation
// clients, pipeline and HTTP server.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"autocontent/internal/artifact"
	"autocontent/internal/entitlement"
	"autocontent/internal/gateway/config"
	"autocontent/internal/gateway/handler"
	"autocontent/internal/gateway/server"
	"autocontent/internal/llm"
	"autocontent/internal/pipeline"
	"autocontent/internal/profile"
	"autocontent/internal/template"
)

type App struct {
	server *server.Server
	text   *llm.Fallback
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	profiles, err := newProfileStore(cfg)
	if err != nil {
		return nil, err
	}
	artifacts, err := newArtifactStore(cfg)
	if err != nil {
		return nil, err
	}

	text := newTextClient(ctx, cfg)

	registry, err := template.NewRegistry(16)
	if err != nil {
		return nil, err
	}

	gate := entitlement.NewGate(profiles)
	pipe := pipeline.New(gate, text, artifacts)

	h := handler.New(registry, cfg.CatalogPath, pipe, profiles, artifacts, cfg.RequestTimeout)
	srv := server.New(cfg.Port, h.Routes())

	return &App{server: srv, text: text}, nil
}

// newProfileStore prefers Postgres and falls back to the in-memory
// store when no DSN is configured.
func newProfileStore(cfg *config.Config) (profile.Store, error) {
	if cfg.ProfileDSN == "" {
		log.Println("PROFILE_PG_DSN not set, using in-memory profile store")
		return profile.NewMemoryStore(), nil
	}
	return profile.NewPGStore(cfg.ProfileDSN)
}

func newArtifactStore(cfg *config.Config) (artifact.Store, error) {
	if cfg.ArtifactDSN == "" {
		log.Println("ARTIFACT_PG_DSN not set, using in-memory artifact store")
		return artifact.NewMemoryStore(), nil
	}
	var objects *artifact.ObjectStore
	if cfg.Artifact.Enabled {
		var err error
		objects, err = artifact.NewObjectStore(artifact.ObjectConfig{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("artifact object store: %w", err)
		}
	}
	return artifact.NewPGStore(cfg.ArtifactDSN, objects)
}

// newTextClient builds the primary/secondary generation pair. A
// missing Gemini key is tolerated: the fallback chain then runs on
// Pollinations alone.
func newTextClient(ctx context.Context, cfg *config.Config) *llm.Fallback {
	var primary llm.TextClient
	gem, err := llm.NewGeminiClient(ctx, cfg.GeminiModel)
	if err != nil {
		log.Printf("Gemini client unavailable, relying on fallback: %v", err)
	} else {
		primary = llm.Chain(gem, llm.Retry(2, 500*time.Millisecond))
	}

	var popts []llm.PollinationsOption
	if cfg.PollinationsRPS > 0 {
		popts = append(popts, llm.WithRPS(cfg.PollinationsRPS, cfg.PollinationsBurst))
	}
	secondary := llm.Chain(
		llm.NewPollinationsClient(cfg.PollinationsModel, popts...),
		llm.Retry(3, time.Second),
	)

	if primary == nil {
		primary = secondary
		secondary = nil
	}
	return llm.NewFallback(primary, secondary)
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.text != nil {
		if err := a.text.Close(); err != nil {
			log.Printf("closing generation clients: %v", err)
		}
	}
	return a.server.Shutdown(ctx)
}
