package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestExtractTextFromResponse_JoinsParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "Here you go: "},
				nil,
				{Text: `{"gainers":[],"losers":[]}`},
			}},
		}},
	}

	text, err := extractTextFromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, `Here you go: {"gainers":[],"losers":[]}`, text)
}

func TestExtractTextFromResponse_NoContent(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil":             nil,
		"no candidates":   {},
		"nil content":     {Candidates: []*genai.Candidate{{}}},
		"no parts":        {Candidates: []*genai.Candidate{{Content: &genai.Content{}}}},
		"whitespace only": {Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "  \n"}}}}}},
	}

	for name, resp := range cases {
		_, err := extractTextFromResponse(resp)
		assert.Error(t, err, name)
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), "  ")
	require.Error(t, err)
}

func TestNewClient_Options(t *testing.T) {
	c, err := NewClient(context.Background(), "test-key",
		WithModel("gemini-1.5-flash"),
		WithModel(""),
		WithRateLimit(0),
		WithTemperature(0.2),
	)
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-flash", c.Model())
	require.NotNil(t, c.temperature)
	assert.InDelta(t, 0.2, *c.temperature, 1e-6)
	assert.NoError(t, c.Close())
}

func TestGenerateContent_AgainstFakeEndpoint(t *testing.T) {
	var capturedPath string
	var capturedPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path

		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			capturedPrompt = body.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"movers: {\"gainers\":[],\"losers\":[]}"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "test-key", WithBaseURL(srv.URL), WithModel("test-model"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	text, err := c.GenerateContent(ctx, "list the movers")
	require.NoError(t, err)

	assert.Equal(t, `movers: {"gainers":[],"losers":[]}`, text)
	assert.True(t, strings.Contains(capturedPath, "test-model:generateContent"), "unexpected path %s", capturedPath)
	assert.Equal(t, "list the movers", capturedPrompt)
}

func TestGenerateContent_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate content")
}

func TestGenerateContent_CancelledContext(t *testing.T) {
	c, err := NewClient(context.Background(), "test-key", WithRateLimit(1))
	require.NoError(t, err)

	// Drain the single burst token so the next Wait must block on ctx.
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.GenerateContent(ctx, "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}
