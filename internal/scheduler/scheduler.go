// Package scheduler fires the check-ins at fixed wall-clock times.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chris/zeroism/internal/flow"
)

// Router starts flows and renders the weekly review.
type Router interface {
	StartFlow(ctx context.Context, id string, kind flow.Kind) string
	WeeklyReview(ctx context.Context) string
}

// SendFunc delivers a message to a conversation on the live transport.
type SendFunc func(conversationID, content string) error

// Triggers holds one cron expression per job. Empty expressions are not
// scheduled.
type Triggers struct {
	Morning string
	Evening string
	Weekly  string
	Monthly string
}

type Scheduler struct {
	cron           *cron.Cron
	router         Router
	send           SendFunc
	conversationID string
	webhookURL     string
	client         *http.Client
	log            *slog.Logger
}

// New builds a scheduler whose jobs run in loc. Scheduled flows run in the
// conversation with the given id; delivery tries send first, then the
// webhook.
func New(loc *time.Location, router Router, conversationID string, send SendFunc, webhookURL string) *Scheduler {
	logger := slog.Default().With("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)))),
		),
		router:         router,
		send:           send,
		conversationID: conversationID,
		webhookURL:     webhookURL,
		client:         &http.Client{Timeout: 15 * time.Second},
		log:            logger,
	}
}

// Register adds the four jobs. An invalid expression is an error and
// nothing further is registered.
func (s *Scheduler) Register(t Triggers) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) string
	}{
		{"morning", t.Morning, s.flowJob(flow.Morning)},
		{"evening", t.Evening, s.flowJob(flow.Evening)},
		{"weekly", t.Weekly, s.weeklyJob},
		{"monthly", t.Monthly, s.flowJob(flow.Monthly)},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, func() { s.Fire(j.name, j.run) }); err != nil {
			return fmt.Errorf("invalid %s cron %q: %w", j.name, j.spec, err)
		}
		s.log.Info("job registered", "job", j.name, "cron", j.spec)
	}
	return nil
}

func (s *Scheduler) flowJob(kind flow.Kind) func(context.Context) string {
	return func(ctx context.Context) string {
		return s.router.StartFlow(ctx, s.conversationID, kind)
	}
}

func (s *Scheduler) weeklyJob(ctx context.Context) string {
	return s.router.WeeklyReview(ctx)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Fire runs one job and delivers its message.
func (s *Scheduler) Fire(name string, run func(context.Context) string) {
	start := time.Now()
	content := run(context.Background())
	if content == "" {
		return
	}
	s.deliver(name, content)
	s.log.Info("job completed", "job", name, "duration", time.Since(start).Round(time.Millisecond))
}

func (s *Scheduler) deliver(job, content string) {
	if s.send != nil && s.conversationID != "" {
		err := s.send(s.conversationID, content)
		if err == nil {
			return
		}
		s.log.Warn("send failed", "job", job, "error", err)
	}
	if s.webhookURL != "" {
		if err := s.postWebhook(content); err != nil {
			s.log.Warn("webhook failed", "job", job, "error", err)
		}
		return
	}
	s.log.Warn("no delivery method available", "job", job)
}

// Webhook messages share the 2000 character limit of ordinary messages.
const webhookLimit = 2000

func (s *Scheduler) postWebhook(content string) error {
	if len(content) > webhookLimit {
		content = content[:webhookLimit-3] + "..."
	}
	body, _ := json.Marshal(map[string]string{"content": content})
	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
