package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	// ErrOracle wraps any failed model call, timeouts included.
	ErrOracle = errors.New("model call failed")
	// ErrInvalidOutput means the model answered but with nothing usable.
	ErrInvalidOutput = errors.New("model returned invalid output")
	// ErrNotConfigured is returned by the oracle used when no model
	// credentials are set.
	ErrNotConfigured = fmt.Errorf("%w: no model configured", ErrOracle)
)

// Oracle answers extraction questions about images or free text. Answers
// are unstructured text; callers decode them.
type Oracle interface {
	DescribeImages(ctx context.Context, images []Image, instructions string) (string, error)
	EstimateFromText(ctx context.Context, text, instructions string) (string, error)
}

// ModelOracle is an Oracle backed by a chat Client. Each call is bounded by
// the timeout and never retried.
type ModelOracle struct {
	client  Client
	timeout time.Duration
	log     *slog.Logger
}

func NewOracle(client Client, timeout time.Duration) *ModelOracle {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &ModelOracle{client: client, timeout: timeout, log: slog.Default().With("component", "oracle")}
}

func (o *ModelOracle) DescribeImages(ctx context.Context, images []Image, instructions string) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("%w: no images", ErrInvalidOutput)
	}
	return o.ask(ctx, "images", Message{Role: "user", Content: instructions, Images: images})
}

func (o *ModelOracle) EstimateFromText(ctx context.Context, text, instructions string) (string, error) {
	return o.ask(ctx, "text", Message{Role: "user", Content: instructions + "\n\n" + text})
}

func (o *ModelOracle) ask(ctx context.Context, kind string, msg Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.Chat(ctx, "", []Message{msg}, nil)
	if err != nil {
		o.log.Warn("oracle call failed", "kind", kind, "images", len(msg.Images), "elapsed", time.Since(start), "error", err)
		return "", fmt.Errorf("%w: %w", ErrOracle, err)
	}
	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", ErrInvalidOutput)
	}
	o.log.Debug("oracle answered", "kind", kind, "images", len(msg.Images), "elapsed", time.Since(start), "chars", len(answer))
	return answer, nil
}

// OfflineClient is the chat Client used when no model is configured.
type OfflineClient struct{}

func (OfflineClient) Chat(context.Context, string, []Message, []Tool) (*Response, error) {
	return nil, ErrNotConfigured
}
