package main

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Omkar399/project-z/internal/classifier"
	"github.com/Omkar399/project-z/internal/config"
	"github.com/Omkar399/project-z/internal/memory"
	"github.com/Omkar399/project-z/internal/reasoning"
	"github.com/Omkar399/project-z/internal/router"
	"github.com/Omkar399/project-z/internal/store"
)

// app bundles the wired collaborators commands run against. Everything is
// constructed here explicitly; nothing reaches for globals.
type app struct {
	cfg      *config.Config
	dataDir  string
	llm      reasoning.Client
	memory   *memory.Store
	settings *store.Store
}

func newApp() (*app, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}

	llm, err := reasoning.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	memDir := dataDir
	if cfg.Memory.DatabasePath != "" {
		memDir = filepath.Dir(cfg.Memory.DatabasePath)
	}
	memStore, err := memory.NewStore(memDir)
	if err != nil {
		return nil, err
	}

	settings, err := store.NewStore(dataDir)
	if err != nil {
		memStore.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		dataDir:  dataDir,
		llm:      llm,
		memory:   memStore,
		settings: settings,
	}, nil
}

func (a *app) Close() {
	if err := a.memory.Close(); err != nil {
		logger.Warn("closing memory store", zap.Error(err))
	}
	if err := a.settings.Close(); err != nil {
		logger.Warn("closing settings store", zap.Error(err))
	}
}

// buildRouter wires the query router with all four strategies. Calendar and
// contact lookups run against the configured providers; in this build those
// are the stub providers below, so calendar questions get the denial path.
func (a *app) buildRouter(calendar router.CalendarProvider, contacts router.ContactDirectory) *router.Router {
	return router.New(
		classifier.New(a.llm),
		router.NewClipboardStrategy(a.llm),
		router.NewCalendarReadStrategy(a.llm, calendar),
		router.NewCalendarCreateStrategy(a.llm, calendar, contacts),
		router.NewDirectStrategy(a.llm),
	)
}

// retrieveSnippets ranks stored snippets against the question and returns
// their text, most relevant first.
func (a *app) retrieveSnippets(ctx context.Context, question string) []string {
	topK := a.cfg.Memory.MaxSnippets
	if topK <= 0 {
		topK = 5
	}

	queryVec, err := a.llm.Embed(ctx, question)
	if err != nil {
		logger.Debug("query embedding failed, skipping retrieval", zap.Error(err))
		return nil
	}

	results, err := a.memory.Search(queryVec, topK)
	if err != nil {
		logger.Debug("snippet search failed", zap.Error(err))
		return nil
	}

	snippets := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, r.Snippet.Content)
	}
	return snippets
}

// =============================================================================
// STUB EXTERNAL PROVIDERS
// =============================================================================

// stubCalendar is the calendar provider used when no OS integration is
// wired: never authorized, so calendar strategies answer with the denial
// message instead of failing.
type stubCalendar struct{}

func (stubCalendar) IsAuthorized() bool                        { return false }
func (stubCalendar) RequestAuthorization(context.Context) bool { return false }

func (stubCalendar) Events(context.Context, time.Time, time.Time) ([]router.Event, error) {
	return nil, errors.New("calendar not available")
}

func (stubCalendar) Create(context.Context, router.CreateEventInput) (string, error) {
	return "", errors.New("calendar not available")
}

// stubDirectory is the people-lookup provider used when no OS integration is
// wired: every search comes back empty, so attendees are reported unresolved.
type stubDirectory struct{}

func (stubDirectory) Search(context.Context, string) ([]router.Contact, error) {
	return nil, nil
}
