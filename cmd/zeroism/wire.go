package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chris/zeroism/config"
	"github.com/chris/zeroism/internal/agent"
	"github.com/chris/zeroism/internal/bot"
	"github.com/chris/zeroism/internal/briefing"
	"github.com/chris/zeroism/internal/db"
	"github.com/chris/zeroism/internal/flow"
	"github.com/chris/zeroism/internal/llm"
	"github.com/chris/zeroism/internal/quicklog"
	"github.com/chris/zeroism/internal/records"
	"github.com/chris/zeroism/internal/report"
	"github.com/chris/zeroism/internal/scheduler"
)

type app struct {
	cfg     *config.Config
	router  *bot.Router
	closers []func() error
}

// build wires every component. Missing credentials disable the capability
// that needs them instead of failing.
func build(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	loc := cfg.Location
	now := func() time.Time { return time.Now().In(loc) }

	backend, closeStore := openStore(ctx, cfg)
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	store := records.NewStore(backend)
	if err := store.EnsureTables(ctx); err != nil {
		slog.Warn("store not ready", "backend", cfg.StoreBackend, "error", err)
	}
	journal := records.NewJournal(store, now)
	reporter := report.New(store, loc, now)

	client := llm.NewClientOrOffline(llm.ProviderConfig{
		Provider:  cfg.LLMProvider,
		APIKey:    apiKey(cfg),
		AuthToken: cfg.AnthropicToken,
		Model:     cfg.LLMModel,
		BaseURL:   cfg.OllamaBaseURL,
	})
	oracle := llm.NewOracle(client, cfg.OracleTimeout)

	briefer := briefing.New(briefing.NewWeather(""), openCalendar(ctx, cfg), cfg.WeatherLocations)

	convs := flow.NewConversations(cfg.HistoryLimit, cfg.MaxContextTokens)
	engine := flow.New(flow.Deps{
		Journal:          journal,
		Oracle:           oracle,
		Briefing:         briefer,
		Sauna:            reporter,
		SleepScreenshots: cfg.SleepScreenshots,
	}, convs, loc, now)
	quick := quicklog.New(journal, oracle, reporter, loc, now)
	coach := agent.New(client, reporter, quick, loc, cfg.MaxContextTokens)

	a.router = bot.New(engine, convs, quick, reporter, coach)
	return a, nil
}

func (a *app) scheduler(conversationID string, send scheduler.SendFunc) (*scheduler.Scheduler, error) {
	s := scheduler.New(a.cfg.Location, a.router, conversationID, send, a.cfg.DiscordWebhook)
	err := s.Register(scheduler.Triggers{
		Morning: a.cfg.MorningCron,
		Evening: a.cfg.EveningCron,
		Weekly:  a.cfg.WeeklyCron,
		Monthly: a.cfg.MonthlyCron,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func apiKey(cfg *config.Config) string {
	if cfg.LLMProvider == "openai" {
		return cfg.OpenAIKey
	}
	return cfg.AnthropicKey
}

// openStore picks the record backend. Any failure falls back to
// records.Unavailable so the rest of the bot keeps working.
func openStore(ctx context.Context, cfg *config.Config) (records.Backend, func() error) {
	log := slog.With("component", "store", "backend", cfg.StoreBackend)
	switch cfg.StoreBackend {
	case "memory":
		return records.NewMemoryBackend(), nil
	case "sqlite":
		d, err := db.Open(cfg.DatabasePath)
		if err != nil {
			log.Error("store unavailable", "error", err)
			return records.Unavailable{}, nil
		}
		return d, d.Close
	case "postgres":
		if !db.IsPostgresDSN(cfg.DatabaseURL) {
			log.Warn("DATABASE_URL missing or not a postgres DSN, store unavailable")
			return records.Unavailable{}, nil
		}
		d, err := db.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Error("store unavailable", "error", err)
			return records.Unavailable{}, nil
		}
		return d, d.Close
	case "sheets":
		if cfg.GoogleCredentials == "" || cfg.SheetID == "" {
			log.Warn("GOOGLE_CREDENTIALS or SHEET_ID not set, store unavailable")
			return records.Unavailable{}, nil
		}
		b, err := records.NewSheetsBackend(ctx, []byte(cfg.GoogleCredentials), cfg.SheetID)
		if err != nil {
			log.Error("store unavailable", "error", err)
			return records.Unavailable{}, nil
		}
		return b, nil
	default:
		log.Error("unknown STORE_BACKEND, store unavailable")
		return records.Unavailable{}, nil
	}
}

func openCalendar(ctx context.Context, cfg *config.Config) briefing.Calendar {
	if cfg.GoogleCredentials == "" || cfg.CalendarID == "" {
		return briefing.NoCalendar{}
	}
	cal, err := briefing.NewGoogleCalendar(ctx, []byte(cfg.GoogleCredentials), cfg.CalendarID)
	if err != nil {
		slog.Warn("calendar unavailable", "component", "briefing", "error", err)
		return briefing.NoCalendar{}
	}
	return cal
}
