// Package runtimeinit performs the startup shared by the overlay and the CLI:
// configuration, logging, the inference client and the settings store.
package runtimeinit

import (
	"errors"
	"fmt"
	"log"
	"time"

	"screen-overlay-llm/src/clipboard"
	"screen-overlay-llm/src/config"
	"screen-overlay-llm/src/llm"
	"screen-overlay-llm/src/logutil"
	"screen-overlay-llm/src/settings"
)

// ErrMissingAPIKey is returned when neither the key file nor the environment
// provides a credential.
var ErrMissingAPIKey = errors.New("GROQ_API_KEY is required")

type Options struct {
	LoadOptions config.LoadOptions
	// SetupLogging defaults to logutil.Setup.
	SetupLogging func(enableFileLogging bool, dir string)
	// OpenStore opens the persistent settings store in the data dir.
	OpenStore bool
	// InitClipboard prepares the clipboard. Failure only disables copying.
	InitClipboard bool
}

// Runtime is everything Bootstrap produced. Close releases the store.
type Runtime struct {
	Config *config.Config
	LLM    *llm.Client
	Store  settings.Store
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	setup := opts.SetupLogging
	if setup == nil {
		setup = logutil.Setup
	}
	setup(cfg.EnableFileLogging, cfg.DataDir)

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: checked key file %s and the %s env var", ErrMissingAPIKey, cfg.APIKeyPath, config.APIKeyEnvVar)
	}
	log.Printf("Config: vision=%s text=%s base=%s key=%s", cfg.VisionModel, cfg.TextModel, cfg.BaseURL, logutil.RedactKey(cfg.APIKey))

	rt := &Runtime{
		Config: cfg,
		LLM: llm.New(llm.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			VisionModel: cfg.VisionModel,
			TextModel:   cfg.TextModel,
			Timeout:     time.Duration(cfg.RequestTimeoutSec) * time.Second,
		}),
		Store: settings.NewMemoryStore(),
	}

	if opts.OpenStore {
		store, err := settings.OpenSQLite(cfg.DataDir)
		if err != nil {
			log.Printf("Settings: falling back to memory store: %v", err)
		} else {
			rt.Store = store
		}
	}

	if opts.InitClipboard {
		if err := clipboard.Init(); err != nil {
			log.Printf("Clipboard unavailable, copying disabled: %v", err)
		}
	}
	return rt, nil
}

func (rt *Runtime) Close() error {
	if rt.Store == nil {
		return nil
	}
	return rt.Store.Close()
}
