package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldgate/shieldgate/pkg/model"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestClient_Classify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, classifyPath, r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Token"))

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "toxicity-v1", req.Model)

		_ = json.NewEncoder(w).Encode(model.Classification{Label: "toxic", Score: 0.91})
	}))
	defer server.Close()

	client := NewClient("toxicity-v1", Credentials{BaseURL: server.URL, Token: "secret"}, nil, newTestLogger())

	c, err := client.Classify(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, "toxic", c.Label)
	assert.InDelta(t, 0.91, c.Score, 0.0001)
}

func TestClient_Recognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, entitiesPath, r.URL.Path)
		_ = json.NewEncoder(w).Encode([]model.Entity{
			{Type: "email", Value: "a@b.com", Start: 0, End: 7, Score: 0.95},
		})
	}))
	defer server.Close()

	client := NewClient("pii-v1", Credentials{BaseURL: server.URL}, nil, newTestLogger())

	entities, err := client.Recognize(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "email", entities[0].Type)
}

func TestClient_Non200Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("broken-v1", Credentials{BaseURL: server.URL}, nil, newTestLogger())

	_, err := client.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, ErrInferenceCall)
}

func TestClient_CircuitBreakerOpensAfterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient("flaky-v1", Credentials{BaseURL: server.URL}, nil, newTestLogger())

	for i := 0; i < 5; i++ {
		_, err := client.Classify(context.Background(), "text")
		assert.Error(t, err)
	}

	// The breaker is open now, the call fails without reaching the server.
	_, err := client.Classify(context.Background(), "text")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInferenceCall)
}
