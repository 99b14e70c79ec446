// Package remote implements the model contracts against an external inference
// service speaking a small JSON protocol. Calls are guarded by a circuit
// breaker so a flapping service degrades fast instead of stalling scans.
package remote

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

	"github.com/shieldgate/shieldgate/pkg/model"
)

const (
	classifyPath = "/v1/classify"
	entitiesPath = "/v1/entities"
)

var ErrInferenceCall = errors.New("inference service call failed")

// HTTPClient is the subset of http.Client the model needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials locate and authenticate against the inference service.
type Credentials struct {
	BaseURL string
	Token   string
}

// Client is a remote model implementing both Classifier and EntityRecognizer.
type Client struct {
	name        string
	client      HTTPClient
	logger      *logrus.Logger
	breaker     *gobreaker.CircuitBreaker
	credentials Credentials
}

func NewClient(name string, credentials Credentials, httpClient HTTPClient, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    fmt.Sprintf("inference-%s", name),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		name:        name,
		client:      httpClient,
		logger:      logger,
		breaker:     breaker,
		credentials: credentials,
	}
}

func (c *Client) Name() string {
	return c.name
}

type classifyRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

func (c *Client) Classify(ctx context.Context, text string) (model.Classification, error) {
	var out model.Classification
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, classifyPath, classifyRequest{Model: c.name, Text: text}, &out)
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.WithError(err).WithField("model", c.name).Error("classification call failed")
		}
		return model.Classification{}, err
	}
	return out, nil
}

func (c *Client) Recognize(ctx context.Context, text string) ([]model.Entity, error) {
	var out []model.Entity
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, entitiesPath, classifyRequest{Model: c.name, Text: text}, &out)
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.WithError(err).WithField("model", c.name).Error("entity recognition call failed")
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.credentials.BaseURL+path,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to create inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.credentials.Token != "" {
		req.Header.Set("Token", c.credentials.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("failed to call inference service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrInferenceCall, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("inference response read error: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid inference response: %w", err)
	}
	return nil
}
