// Package httpgw implements ai.Gateway on top of a plain HTTP text generation endpoint.
package httpgw

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/logger"
)

const (
	providerName    = "http"
	contentType     = "application/json"
	acceptEncoding  = "gzip"
	userAgent       = "spigell/cv-screener"
	maxResponseSize = 1 << 20
)

// Request is the body posted to the endpoint.
type Request struct {
	Prompt          string  `json:"prompt"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

// Gateway posts prompts to a configured URL and treats the response body as raw text.
type Gateway struct {
	HTTPClient *http.Client
	UserAgent  string

	url    string
	model  string
	token  string
	logger *zap.Logger
}

// New creates a Gateway for url. The token is sent as a bearer token when set.
// Timeouts are driven by the request context; the client timeout is only a
// safety net.
func New(url, model, token string, log *zap.Logger) (*Gateway, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("http provider url is required")
	}

	return &Gateway{
		url:   url,
		model: strings.TrimSpace(model),
		HTTPClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		UserAgent: userAgent,
		token:     strings.TrimSpace(token),
		logger:    logger.WithProviderFields(log, providerName, model),
	}, nil
}

func (g *Gateway) Name() string { return providerName }

func (g *Gateway) Model() string { return g.model }

// Send posts one request. Any non-2xx status, transport failure or empty body
// is returned as a *ai.ProviderError.
func (g *Gateway) Send(ctx context.Context, prompt string, opts ai.Options) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ai.NewError(ai.KindUnknown, "prompt must not be empty", nil)
	}

	payload, err := json.Marshal(Request{
		Prompt:          prompt,
		MaxOutputTokens: opts.MaxOutputTokens,
		Temperature:     min(max(opts.Temperature, 0), 1),
	})
	if err != nil {
		return "", ai.NewError(ai.KindUnknown, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return "", ai.NewError(ai.KindUnknown, "build request", err)
	}
	g.setHeaders(req)

	g.logger.Debug("make request", zap.String("url", g.url))
	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", ai.Classify(err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", ai.Classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := ai.ClassifyStatus(resp.StatusCode)
		g.logger.Debug("bad status from provider",
			zap.Int("status", resp.StatusCode),
			zap.String("error_kind", string(kind)),
		)
		return "", ai.NewError(kind, fmt.Sprintf("bad status: %s", resp.Status), nil)
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", ai.NewError(ai.KindMalformedResponse, "provider returned empty body", nil)
	}

	return text, nil
}

func (g *Gateway) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set("User-Agent", g.UserAgent)
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(io.LimitReader(reader, maxResponseSize))
}
