// Package translate issues machine-translation requests against a remote
// MT endpoint and parses provider responses into typed results.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Provider selects the wire shape of the MT endpoint.
type Provider string

const (
	// ProviderMyMemory is the GET `?q=<text>&langpair=<src>|<tgt>` shape with
	// the translated text at responseData.translatedText.
	ProviderMyMemory Provider = "mymemory"
	// ProviderLibre is the POST `{q, source, target, format}` shape with the
	// translated text at the top-level translatedText field.
	ProviderLibre Provider = "libre"
)

var (
	// ErrTranslationFailed covers transport failures, non-2xx statuses, and
	// malformed payloads. The wrapped detail is for logs, not for users.
	ErrTranslationFailed = errors.New("translation request failed")
	// ErrEmptyTranslation indicates an HTTP success whose payload carried no
	// usable translated text. Success requires both conditions.
	ErrEmptyTranslation = errors.New("translation response contained no text")
)

// Request is one translation attempt. Text is never empty; the session
// controller guards that upstream.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
}

// Result is a successful translation payload.
type Result struct {
	TranslatedText string
}

// Options configures a Client.
type Options struct {
	Endpoint string
	Provider Provider
	APIKey   string
	Timeout  time.Duration
}

// Client issues one outbound request per Translate call. It never retries:
// third-party free tiers are quota-limited, so retry policy belongs to the
// caller.
type Client struct {
	endpoint string
	provider Provider
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

// New constructs a translation client for the configured endpoint.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("translate endpoint is empty")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("parse translate endpoint %q: %w", endpoint, err)
	}

	provider := opts.Provider
	if provider == "" {
		provider = ProviderMyMemory
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		provider: provider,
		apiKey:   opts.APIKey,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}, nil
}

// Translate performs one MT request. The context cancels the transport call;
// superseding stale completions is the caller's responsibility.
func (c *Client) Translate(ctx context.Context, req Request) (Result, error) {
	requestID := uuid.NewString()

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logAttempt(requestID, req, 0, started, err)
		return Result{}, fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.logAttempt(requestID, req, resp.StatusCode, started, err)
		return Result{}, fmt.Errorf("%w: read response: %v", ErrTranslationFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("endpoint returned status %d", resp.StatusCode)
		c.logAttempt(requestID, req, resp.StatusCode, started, statusErr)
		return Result{}, fmt.Errorf("%w: %v", ErrTranslationFailed, statusErr)
	}

	text, err := parseTranslatedText(c.provider, body)
	if err != nil {
		c.logAttempt(requestID, req, resp.StatusCode, started, err)
		return Result{}, err
	}

	c.logAttempt(requestID, req, resp.StatusCode, started, nil)
	return Result{TranslatedText: text}, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	switch c.provider {
	case ProviderLibre:
		payload := map[string]string{
			"q":      req.Text,
			"source": req.SourceLang,
			"target": req.TargetLang,
			"format": "text",
		}
		if c.apiKey != "" {
			payload["api_key"] = c.apiKey
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	default:
		query := url.Values{}
		query.Set("q", req.Text)
		query.Set("langpair", req.SourceLang+"|"+req.TargetLang)
		query.Set("mt", "1")
		if c.apiKey != "" {
			query.Set("key", c.apiKey)
		}

		separator := "?"
		if strings.Contains(c.endpoint, "?") {
			separator = "&"
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+separator+query.Encode(), nil)
	}
}

func parseTranslatedText(provider Provider, body []byte) (string, error) {
	switch provider {
	case ProviderLibre:
		var payload struct {
			TranslatedText string `json:"translatedText"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", fmt.Errorf("%w: decode response: %v", ErrTranslationFailed, err)
		}
		if strings.TrimSpace(payload.TranslatedText) == "" {
			return "", ErrEmptyTranslation
		}
		return payload.TranslatedText, nil
	default:
		var payload struct {
			ResponseData struct {
				TranslatedText string `json:"translatedText"`
			} `json:"responseData"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", fmt.Errorf("%w: decode response: %v", ErrTranslationFailed, err)
		}
		if strings.TrimSpace(payload.ResponseData.TranslatedText) == "" {
			return "", ErrEmptyTranslation
		}
		return payload.ResponseData.TranslatedText, nil
	}
}

func (c *Client) logAttempt(requestID string, req Request, status int, started time.Time, err error) {
	if c.logger == nil {
		return
	}
	fields := []any{
		"request_id", requestID,
		"provider", string(c.provider),
		"source", req.SourceLang,
		"target", req.TargetLang,
		"text_length", len(req.Text),
		"status", status,
		"duration_ms", time.Since(started).Milliseconds(),
	}
	if err != nil {
		c.logger.Error("translation request failed", append(fields, "error", err.Error())...)
		return
	}
	c.logger.Info("translation request complete", fields...)
}
