package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyChat/internal/backend"
	"StudyChat/internal/telemetry"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCatalogCommand(t *testing.T) {
	out, err := execute(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Computer Science")
	assert.Contains(t, out, "2. Study Tips (school)")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, telemetry.Version+"\n", out)
}

func TestAskRequiresAPIKey(t *testing.T) {
	t.Setenv("STUDYCHAT_API_KEY", "")
	_, err := execute(t, "ask", "--env-file", "", "--log-dir", t.TempDir(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STUDYCHAT_API_KEY")
}

func TestAskWithSubjectAndAction(t *testing.T) {
	var got backend.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Spaced repetition works."}}]}`))
	}))
	defer server.Close()

	t.Setenv("STUDYCHAT_API_KEY", "test-key")
	out, err := execute(t, "ask",
		"--env-file", "",
		"--log-dir", t.TempDir(),
		"--base-url", server.URL,
		"--subject", "chemistry",
		"--action", "study tips",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Spaced repetition works.")
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Context: Helping with Chemistry. Study Tips for Chemistry", got.Messages[0].Content)
}

func TestAskReportsClassifiedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key test-key"}}`))
	}))
	defer server.Close()

	t.Setenv("STUDYCHAT_API_KEY", "test-key")
	out, err := execute(t, "ask", "--env-file", "", "--log-dir", t.TempDir(), "--base-url", server.URL, "hi")
	require.Error(t, err)
	assert.Contains(t, out, "API key error: Please check your AI API key configuration.")
	assert.NotContains(t, out, "test-key")
}
