// Package runtime adapts an external model runtime, reached over HTTP, to the
// biometric.Classifier contract.
package runtime

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"viewergate/internal/biometric"
	"viewergate/internal/platform/metrics"
	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/platform/circuit"
)

var errModelNotLoaded = errors.New("model not loaded")

// Config locates the runtime and the model bundle it should load.
type Config struct {
	BaseURL        string
	ModelBundleURL string
	Timeout        time.Duration
}

// Client calls the runtime's load and classify endpoints. The model bundle is
// loaded lazily on first use and reloaded after a failed load or when the
// runtime reports it lost the model.
type Client struct {
	baseURL    string
	bundleURL  string
	httpClient *http.Client
	breaker    *circuit.Breaker
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	mu     sync.Mutex
	loaded bool
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("classifier runtime URL is required")
	}
	if strings.TrimSpace(cfg.ModelBundleURL) == "" {
		return nil, fmt.Errorf("classifier model bundle URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:    base,
		bundleURL:  strings.TrimSpace(cfg.ModelBundleURL),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    circuit.New("classifier"),
		tracer:     otel.Tracer("viewergate/biometric/runtime"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loadRequest struct {
	BundleURL string `json:"bundle_url"`
}

type classifyRequest struct {
	Image       string `json:"image"`
	ContentType string `json:"content_type,omitempty"`
}

type face struct {
	Age    float64 `json:"age"`
	Gender string  `json:"gender"`
	Score  float64 `json:"score"`
}

type classifyResponse struct {
	Faces []face `json:"faces"`
}

// Classify implements biometric.Classifier.
func (c *Client) Classify(ctx context.Context, frame biometric.Frame) (*biometric.Result, error) {
	ctx, span := c.tracer.Start(ctx, "biometric.classify")
	defer span.End()

	if frame.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "frame is empty")
	}
	if !c.breaker.Allow() {
		span.SetStatus(codes.Error, "circuit open")
		return nil, biometric.Unavailable(nil, "classifier runtime temporarily unavailable")
	}

	start := time.Now()
	faces, err := c.classify(ctx, frame)
	c.metrics.ObserveClassifierLatency(time.Since(start))
	if err != nil {
		if biometric.IsUnavailable(err) {
			c.recordFailure(ctx, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	c.recordSuccess(ctx)

	span.SetAttributes(attribute.Int("faces", len(faces)))
	best, ok := bestFace(faces)
	if !ok {
		return nil, nil
	}
	result := &biometric.Result{
		Age:    int(math.Round(best.Age)),
		Gender: mapGender(best.Gender),
		Score:  clamp01(best.Score),
	}
	if result.Age < 0 {
		result.Age = 0
	}
	return result, nil
}

func (c *Client) classify(ctx context.Context, frame biometric.Frame) ([]face, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	faces, err := c.postClassify(ctx, frame)
	if errors.Is(err, errModelNotLoaded) {
		c.markUnloaded()
		if err := c.ensureLoaded(ctx); err != nil {
			return nil, err
		}
		faces, err = c.postClassify(ctx, frame)
	}
	if errors.Is(err, errModelNotLoaded) {
		return nil, biometric.Unavailable(err, "classifier model could not be loaded")
	}
	return faces, err
}

func (c *Client) ensureLoaded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}
	body, err := json.Marshal(loadRequest{BundleURL: c.bundleURL})
	if err != nil {
		return fmt.Errorf("failed to marshal load request: %w", err)
	}
	resp, err := c.post(ctx, "/v1/models/load", body)
	if err != nil {
		return biometric.Unavailable(err, "classifier runtime unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return biometric.Unavailable(nil, fmt.Sprintf("classifier model load failed with status %d", resp.StatusCode))
	}
	c.loaded = true
	return nil
}

func (c *Client) markUnloaded() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

func (c *Client) postClassify(ctx context.Context, frame biometric.Frame) ([]face, error) {
	body, err := json.Marshal(classifyRequest{
		Image:       base64.StdEncoding.EncodeToString(frame.Data),
		ContentType: frame.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classify request: %w", err)
	}
	resp, err := c.post(ctx, "/v1/classify", body)
	if err != nil {
		return nil, biometric.Unavailable(err, "classifier runtime unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return nil, errModelNotLoaded
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, dErrors.New(dErrors.CodeBadRequest, "frame could not be decoded by the classifier")
	case resp.StatusCode >= 400:
		return nil, biometric.Unavailable(nil, fmt.Sprintf("classifier runtime returned status %d", resp.StatusCode))
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, biometric.Unavailable(err, "classifier runtime returned malformed response")
	}
	return out.Faces, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func (c *Client) recordFailure(ctx context.Context, err error) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.metrics.SetClassifierAvailable(false)
		if c.logger != nil {
			c.logger.WarnContext(ctx, "classifier circuit opened", "error", err)
		}
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	_, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.metrics.SetClassifierAvailable(true)
		if c.logger != nil {
			c.logger.InfoContext(ctx, "classifier circuit closed")
		}
	}
}

// bestFace picks the most confident detection, matching single-face semantics.
func bestFace(faces []face) (face, bool) {
	if len(faces) == 0 {
		return face{}, false
	}
	best := faces[0]
	for _, f := range faces[1:] {
		if f.Score > best.Score {
			best = f
		}
	}
	return best, true
}

// mapGender treats any non-male label as female; the runtime is binary.
func mapGender(label string) biometric.Gender {
	if biometric.ParseGender(label) == biometric.GenderMale {
		return biometric.GenderMale
	}
	return biometric.GenderFemale
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
