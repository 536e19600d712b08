package briefing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Weather fetches one-line current conditions from a wttr.in style service.
type Weather struct {
	baseURL string
	http    *http.Client
}

func NewWeather(baseURL string) *Weather {
	if baseURL == "" {
		baseURL = "https://wttr.in"
	}
	return &Weather{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: 10 * time.Second}}
}

// Current returns "temperature condition humidity wind" for a location.
func (w *Weather) Current(ctx context.Context, location string) (string, error) {
	u := w.baseURL + "/" + url.PathEscape(location) + "?format=" + url.QueryEscape("%t %C %h %w")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("building weather request: %w", err)
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("reading weather: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather: %s", resp.Status)
	}
	return strings.TrimSpace(string(body)), nil
}
