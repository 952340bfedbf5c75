package httpapi_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/parley"
	"github.com/parley-ai/parley/pkg/adapters/httpapi"
	"github.com/parley-ai/parley/pkg/domain"
)

type cannedClassifier struct {
	classification *domain.Classification
}

func (c *cannedClassifier) ClassifyIntent(ctx context.Context, contextText string) (*domain.Classification, error) {
	return c.classification, nil
}

func (c *cannedClassifier) ExtractSlots(ctx context.Context, current map[string]any, missing []string, contextText string) (map[string]any, error) {
	return map[string]any{}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *parley.Agent) {
	t.Helper()
	agent, err := parley.New(&cannedClassifier{
		classification: &domain.Classification{
			Intent:     domain.IntentBookFlight,
			Confidence: 0.9,
			Language:   "en",
		},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(httpapi.NewHandler(agent))
	t.Cleanup(srv.Close)
	return srv, agent
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func TestHandleRun(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/run", map[string]any{
		"message":   "I want to book a flight",
		"thread_id": "t-http",
		"user_id":   "u-1",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result parley.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, "t-http", result.ThreadID)
	assert.Equal(t, domain.IntentBookFlight, result.Intent)
	assert.Equal(t, "Which city are you departing from?", result.Response)
}

func TestHandleRun_RequiresMessage(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/run", map[string]any{"thread_id": "t-1"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleStream_EmitsSSE(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/stream", map[string]any{
		"message":   "book a flight please",
		"thread_id": "t-sse",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var chunks []string
	sawDone := false
	scanner := bufio.NewScanner(resp.Body)
	var eventName string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventName = strings.TrimPrefix(line, "event: ")
			if eventName == "done" {
				sawDone = true
			}
		case strings.HasPrefix(line, "data: ") && eventName == string(domain.EventQuestionChunk):
			var ev domain.Event
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
			chunks = append(chunks, ev.Content)
		}
	}

	assert.True(t, sawDone)
	assert.Equal(t, "Which city are you departing from?", strings.Join(chunks, ""))
}

func TestAdminEndpoints(t *testing.T) {
	srv, agent := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/run", map[string]any{
		"message":   "hello there",
		"thread_id": "t-admin",
		"user_id":   "u-admin",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("list threads", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/threads/?user_id=u-admin")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Threads []domain.ThreadInfo `json:"threads"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Threads, 1)
		assert.Equal(t, "t-admin", body.Threads[0].ThreadID)
	})

	t.Run("entries", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/threads/t-admin/entries")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Entries []domain.LogEntry `json:"entries"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Entries, 1)
		assert.Equal(t, "hello there", body.Entries[0].UserInput)
	})

	t.Run("state", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/threads/t-admin/state")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var state domain.State
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
		assert.Equal(t, "t-admin", state.ThreadID)
	})

	t.Run("search", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/threads/search?q=hello")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Entries []domain.LogEntry `json:"entries"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Entries, 1)
	})

	t.Run("delete", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/threads/t-admin", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		_, err = agent.Checkpoints().Load(context.Background(), "t-admin")
		assert.ErrorIs(t, err, domain.ErrThreadNotFound)
	})
}

func TestHandlePurge_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/threads/purge", map[string]any{"older_than_hours": 0})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleGraph(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "graph TD")
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
