package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeminiGeneratorSendsKeyAndSampling(t *testing.T) {
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		require.Equal(t, "secret-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"GRADE: 87\nFEEDBACK: Good job."}]}}]}`))
	}))
	defer server.Close()

	gen, err := NewGeminiGenerator(GeminiConfig{APIKey: "secret-key", Model: "gemini-test", Endpoint: server.URL})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), Request{
		Prompt:            "grade this",
		SystemInstruction: "be fair",
		Profile:           ProfileGrading,
	})
	require.NoError(t, err)
	require.Equal(t, "GRADE: 87\nFEEDBACK: Good job.", text)

	require.Len(t, captured.Contents, 1)
	require.Equal(t, "grade this", captured.Contents[0].Parts[0].Text)
	require.NotNil(t, captured.SystemInstruction)
	require.Equal(t, "be fair", captured.SystemInstruction.Parts[0].Text)
	require.InDelta(t, 0.4, captured.GenerationConfig.Temperature, 1e-6)
	require.Equal(t, 32, captured.GenerationConfig.TopK)
	require.Equal(t, 2048, captured.GenerationConfig.MaxOutputTokens)
}

func TestGeminiGeneratorNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	gen, err := NewGeminiGenerator(GeminiConfig{APIKey: "bad", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestGeminiGeneratorMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	gen, err := NewGeminiGenerator(GeminiConfig{APIKey: "key", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), Request{Prompt: "hello"})
	require.ErrorContains(t, err, "gemini decode response")
}

func TestGeminiGeneratorRequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(GeminiConfig{})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestProfileSamplingTemperatureOverride(t *testing.T) {
	temp := float32(0.1)
	sampling := Request{Profile: ProfileCreative, Temperature: &temp}.sampling()
	require.InDelta(t, 0.1, sampling.Temperature, 1e-6)
	require.Equal(t, 40, sampling.TopK)
}

func TestGeminiGeneratorSendsPromptFirstLineUnchanged(t *testing.T) {
	var raw map[string]json.RawMessage
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &raw))
		require.NoError(t, json.Unmarshal(body, &captured))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"GRADE: 5"}]}}]}`))
	}))
	defer server.Close()

	gen, err := NewGeminiGenerator(GeminiConfig{APIKey: "key", Endpoint: server.URL})
	require.NoError(t, err)

	prompt := "You are an experienced educator grading a student assignment.\n\nStudent Submission:\nx"
	_, err = gen.Generate(context.Background(), Request{Prompt: prompt, Profile: ProfileGrading})
	require.NoError(t, err)

	require.Equal(t, prompt, captured.Contents[0].Parts[0].Text)
	require.NotContains(t, raw, "systemInstruction")
}
