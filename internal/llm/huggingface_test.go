package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHFTestClient(t *testing.T, handler http.HandlerFunc) *HFClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.LLM{
		Provider:     "huggingface",
		BaseURL:      server.URL,
		APIKey:       "hf-test",
		SummaryModel: "facebook/bart-large-cnn",
		StyleModel:   "google/flan-t5-base",
		Timeout:      5,
	}
	return NewHFClient(cfg, nil)
}

func TestHFClient_Summarize(t *testing.T) {
	client := newHFTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/facebook/bart-large-cnn", r.URL.Path)
		assert.Equal(t, "Bearer hf-test", r.Header.Get("Authorization"))

		var body struct {
			Inputs     string         `json:"inputs"`
			Parameters map[string]int `json:"parameters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "long text", body.Inputs)
		assert.Equal(t, 60, body.Parameters["min_length"])
		assert.Equal(t, 180, body.Parameters["max_length"])

		_, _ = w.Write([]byte(`[{"summary_text":" the summary "}]`))
	})

	got, err := client.Summarize(context.Background(), "long text", 60, 180)
	require.NoError(t, err)
	assert.Equal(t, "the summary", got)
}

func TestHFClient_Transform(t *testing.T) {
	client := newHFTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/google/flan-t5-base", r.URL.Path)
		_, _ = w.Write([]byte(`[{"generated_text":"rewritten"}]`))
	})

	got, err := client.Transform(context.Background(), "instruction", 512)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", got)
}

func TestHFClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantTooLong bool
		wantUnavail bool
	}{
		{"模型加载中", http.StatusServiceUnavailable, `{"error":"Model facebook/bart-large-cnn is currently loading"}`, false, true},
		{"输入超长", http.StatusBadRequest, `{"error":"index out of range in self"}`, true, false},
		{"200 但带 error 字段", http.StatusOK, `{"error":"Input is too long for this model"}`, true, false},
		{"普通服务错误", http.StatusInternalServerError, `{"error":"boom"}`, false, false},
		{"缺少结果字段", http.StatusOK, `[{"other":"x"}]`, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newHFTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Summarize(context.Background(), "x", 1, 2)
			require.Error(t, err)
			assert.Equal(t, tt.wantTooLong, errors.Is(err, ErrInputTooLong))
			assert.Equal(t, tt.wantUnavail, errors.Is(err, ErrServiceUnavailable))
		})
	}
}

func TestHFClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cfg := &config.LLM{BaseURL: url, SummaryModel: "m", StyleModel: "m", Timeout: 2}
	_, err := NewHFClient(cfg, nil).Summarize(context.Background(), "x", 1, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrServiceUnavailable))
}
