// Package judge implements the HTTP client for the external predictive
// judge service. The judge accepts an evidence brief and replies with
// free-form text expected to contain a JSON assessment; this client is
// only transport, parsing happens in the service layer.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/readmit-risk-server/internal/domain"
)

// Config holds judge client configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// Client calls the predictive judge over HTTP. Calls are rate limited
// and wrapped in a circuit breaker; a timeout surfaces as
// domain.ErrJudgeTimeout and is fatal for the discharge event, with no
// automatic retry.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	log        *logrus.Logger
}

// NewClient creates a judge client.
func NewClient(config Config, logger *logrus.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PredictiveJudge",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSec), config.Burst),
		breaker: breaker,
		log:     logger,
	}
}

// assessRequest is the wire form of a judge call.
type assessRequest struct {
	Model          string `json:"model"`
	SystemPrompt   string `json:"system_prompt"`
	Brief          string `json:"brief"`
	ComplexityHint string `json:"complexity_hint,omitempty"`
}

// assessResponse is the wire form of a judge reply.
type assessResponse struct {
	Text      string  `json:"text"`
	ModelUsed string  `json:"model_used"`
	CostUSD   float64 `json:"cost_usd"`
}

// Assess sends the evidence brief and returns the judge's raw reply.
func (c *Client) Assess(ctx context.Context, req *domain.JudgeRequest) (*domain.JudgeResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for judge rate limit: %w", err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doAssess(ctx, req)
	})
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, domain.ErrJudgeTimeout
		}
		return nil, err
	}

	resp := result.(*domain.JudgeResponse)
	c.log.WithFields(logrus.Fields{
		"model_used":  resp.ModelUsed,
		"cost_usd":    resp.CostUSD,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Judge assessment completed")

	return resp, nil
}

func (c *Client) doAssess(ctx context.Context, req *domain.JudgeRequest) (*domain.JudgeResponse, error) {
	body, err := json.Marshal(assessRequest{
		Model:          req.Model,
		SystemPrompt:   req.SystemPrompt,
		Brief:          req.Brief,
		ComplexityHint: req.ComplexityHint,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling judge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/assess", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building judge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling predictive judge: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("judge returned status %d: %s", httpResp.StatusCode, snippet)
	}

	var wire assessResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding judge response: %w", err)
	}

	return &domain.JudgeResponse{
		Text:      wire.Text,
		ModelUsed: wire.ModelUsed,
		CostUSD:   wire.CostUSD,
	}, nil
}

// isTimeout reports whether the failure was a deadline rather than a
// transport or service error.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
