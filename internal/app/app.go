// Package app wires configuration into a ready assistant: model client,
// file store, task log, session and the presentation sinks.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"os"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"voxassist/internal/assistant"
	"voxassist/internal/config"
	"voxassist/internal/files"
	"voxassist/internal/nlu"
	"voxassist/internal/present"
	"voxassist/internal/proxy"
	"voxassist/internal/tasks"
	"voxassist/internal/tools"
)

type App struct {
	Config  config.Config
	Session *assistant.Session
	Tasks   tasks.Log

	terminal *present.Terminal
	hub      *present.Hub
	speaker  *present.Speaker
	closers  []io.Closer
}

// New builds the app. voice is used only when cfg.Speak is set; it may be nil.
func New(cfg config.Config, stdout io.Writer, voice present.Voice) (*App, error) {
	a := &App{Config: cfg, terminal: present.NewTerminal(stdout)}

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("http client: %w", err)
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0), // one model call per request
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := nlu.NewClient(openai.NewClient(opts...), nlu.Options{
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
	})

	if cfg.Workdir != "" {
		if err := os.MkdirAll(cfg.Workdir, 0o755); err != nil {
			return nil, fmt.Errorf("workdir: %w", err)
		}
	}
	store := files.NewStore(cfg.Workdir)

	if cfg.TasksDB != "" {
		db, err := tasks.OpenSQLite(cfg.TasksDB)
		if err != nil {
			return nil, err
		}
		a.Tasks = db
		a.closers = append(a.closers, db)
	} else {
		a.Tasks = tasks.NewMemoryLog()
	}

	registry := tools.NewRegistry()
	a.Session = assistant.NewSession(model,
		assistant.NewInterpreter(registry, store, a.Tasks),
		registry.Catalog())

	if cfg.HubURL != "" {
		a.hub = present.NewHub(cfg.HubURL)
		a.closers = append(a.closers, a.hub)
	}
	if cfg.Speak && voice != nil {
		a.speaker = present.NewSpeaker(voice)
	}

	log.Debug("Assistant ready",
		"model", cfg.Model,
		"workdir", store.Root(),
		"tasks_db", cfg.TasksDB,
		"hub", cfg.HubURL)
	return a, nil
}

func (a *App) Pipeline(stt assistant.Transcriber) *assistant.Pipeline {
	return assistant.NewPipeline(stt, a.Session)
}

// Present shows a finished request on every configured sink. Sink failures
// are logged; only the terminal write is reported.
func (a *App) Present(ctx context.Context, out assistant.Output, runErr error) error {
	var err error
	if runErr != nil {
		err = a.terminal.ShowError(out, runErr)
	} else {
		err = a.terminal.Show(out)
	}

	if a.hub != nil && runErr == nil {
		if herr := a.hub.Publish(ctx, out); herr != nil {
			log.Warn("Failed to publish to hub", "err", herr)
		}
	}
	if a.speaker != nil && runErr == nil {
		if serr := a.speaker.Say(out); serr != nil {
			log.Warn("Failed to voice out", "err", serr)
		}
	}
	return err
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}
