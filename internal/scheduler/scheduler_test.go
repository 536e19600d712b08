package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/zeroism/internal/flow"
)

type fakeRouter struct {
	started []string
}

func (r *fakeRouter) StartFlow(_ context.Context, id string, kind flow.Kind) string {
	r.started = append(r.started, id+":"+string(kind))
	return string(kind) + " prompt"
}

func (r *fakeRouter) WeeklyReview(context.Context) string { return "WEEKLY REVIEW" }

type webhook struct {
	mu       sync.Mutex
	contents []string
	status   int
}

func (w *webhook) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(req.Body).Decode(&body); err == nil {
			w.mu.Lock()
			w.contents = append(w.contents, body["content"])
			w.mu.Unlock()
		}
		if w.status != 0 {
			rw.WriteHeader(w.status)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRegister(t *testing.T) {
	s := New(time.UTC, &fakeRouter{}, "chan", nil, "")
	require.NoError(t, s.Register(Triggers{Morning: "0 7 * * *", Evening: "30 22 * * *", Weekly: "0 18 * * 0", Monthly: "0 10 1 * *"}))
	assert.Len(t, s.cron.Entries(), 4)

	s = New(time.UTC, &fakeRouter{}, "chan", nil, "")
	require.NoError(t, s.Register(Triggers{Morning: "0 7 * * *"}))
	assert.Len(t, s.cron.Entries(), 1)

	err := New(time.UTC, &fakeRouter{}, "chan", nil, "").Register(Triggers{Evening: "every evening"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evening")
}

func TestScheduleUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Atlantic/Canary")
	require.NoError(t, err)
	s := New(loc, &fakeRouter{}, "chan", nil, "")
	require.NoError(t, s.Register(Triggers{Morning: "0 7 * * *"}))

	next := s.cron.Entries()[0].Schedule.Next(time.Date(2026, 10, 18, 0, 0, 0, 0, loc))
	assert.Equal(t, 7, next.In(loc).Hour())
	assert.Equal(t, 18, next.In(loc).Day())
}

func TestFlowJobStartsInFixedConversation(t *testing.T) {
	r := &fakeRouter{}
	var sent []string
	s := New(time.UTC, r, "chan", func(id, content string) error {
		sent = append(sent, id+"|"+content)
		return nil
	}, "")

	s.Fire("morning", s.flowJob(flow.Morning))
	s.Fire("weekly", r.WeeklyReview)

	assert.Equal(t, []string{"chan:morning"}, r.started)
	assert.Equal(t, []string{"chan|morning prompt", "chan|WEEKLY REVIEW"}, sent)
}

func TestWebhookFallback(t *testing.T) {
	hook := &webhook{}
	srv := hook.server(t)
	s := New(time.UTC, &fakeRouter{}, "chan", func(string, string) error {
		return errors.New("gateway closed")
	}, srv.URL)

	s.Fire("evening", s.flowJob(flow.Evening))
	assert.Equal(t, []string{"evening prompt"}, hook.contents)
}

func TestWebhookWithoutSender(t *testing.T) {
	hook := &webhook{}
	srv := hook.server(t)
	s := New(time.UTC, &fakeRouter{}, "", nil, srv.URL)

	s.Fire("weekly", func(context.Context) string { return strings.Repeat("x", 2500) })
	require.Len(t, hook.contents, 1)
	assert.Len(t, hook.contents[0], webhookLimit)
	assert.True(t, strings.HasSuffix(hook.contents[0], "..."))
}

func TestPostWebhookStatus(t *testing.T) {
	hook := &webhook{status: http.StatusBadRequest}
	srv := hook.server(t)
	s := New(time.UTC, &fakeRouter{}, "", nil, srv.URL)
	err := s.postWebhook("hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestEmptyContentIsNotDelivered(t *testing.T) {
	called := false
	s := New(time.UTC, &fakeRouter{}, "chan", func(string, string) error {
		called = true
		return nil
	}, "")
	s.Fire("weekly", func(context.Context) string { return "" })
	assert.False(t, called)
}
