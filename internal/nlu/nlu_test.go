package nlu

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxassist/internal/tools"
)

const toolCallCompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-5-nano",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "ignored text",
      "refusal": "",
      "tool_calls": [
        {"id": "call_1", "type": "function", "function": {"name": "add_task", "arguments": "{\"task_description\":\"buy milk\"}"}},
        {"id": "call_2", "type": "function", "function": {"name": "create_file", "arguments": "{\"filename\":\"a.txt\",\"content\":\"x\"}"}}
      ]
    }
  }]
}`

const textCompletion = `{
  "id": "chatcmpl-2",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-5-nano",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": "Hello there", "refusal": ""}
  }]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opt Options) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL+"/v1/"),
		option.WithMaxRetries(0),
	)
	return NewClient(api, opt)
}

func TestCompleteSendsCatalogAndParsesToolCalls(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, toolCallCompletion)
	}, Options{Model: "mistral"})

	reply, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "add buy milk and make a.txt"}},
		Tools:    tools.NewRegistry().Catalog(),
	})
	require.NoError(t, err)

	assert.Equal(t, "mistral", body["model"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])

	sent := body["tools"].([]any)
	require.Len(t, sent, 5)
	fn := sent[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, tools.NameCreateFile, fn["name"])

	require.NotNil(t, reply.Content)
	assert.Equal(t, "ignored text", *reply.Content)
	assert.Equal(t, []tools.RawCall{
		{Name: tools.NameAddTask, Arguments: map[string]string{"task_description": "buy milk"}},
		{Name: tools.NameCreateFile, Arguments: map[string]string{"filename": "a.txt", "content": "x"}},
	}, reply.ToolCalls)
}

func TestCompletePrependsSystemPrompt(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, textCompletion)
	}, Options{SystemPrompt: "Be brief."})

	reply, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, body["model"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.NotContains(t, body, "tools")

	require.NotNil(t, reply.Content)
	assert.Equal(t, "Hello there", *reply.Content)
	assert.Empty(t, reply.ToolCalls)
}

func TestCompleteSurfacesTransportErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}, Options{})

	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion")
}

func TestCompleteRejectsUnknownRole(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, Options{})

	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "tool", Content: "x"}},
	})
	assert.ErrorContains(t, err, "unsupported message role")
}

func TestFromCompletion(t *testing.T) {
	t.Run("no choices", func(t *testing.T) {
		_, err := FromCompletion(&openai.ChatCompletion{})
		assert.ErrorIs(t, err, ErrNoChoices)
	})

	t.Run("empty content is nil", func(t *testing.T) {
		var resp openai.ChatCompletion
		require.NoError(t, json.Unmarshal([]byte(`{"choices":[{"message":{"role":"assistant","content":""}}]}`), &resp))

		reply, err := FromCompletion(&resp)
		require.NoError(t, err)
		assert.Nil(t, reply.Content)
		assert.Empty(t, reply.ToolCalls)
	})
}

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"malformed", "{not json", map[string]string{}},
		{"strings", `{"filename":"a.txt","content":"line1\nline2"}`, map[string]string{"filename": "a.txt", "content": "line1\nline2"}},
		{"non strings keep json", `{"filename":"a.txt","content":42,"flag":true,"none":null}`,
			map[string]string{"filename": "a.txt", "content": "42", "flag": "true", "none": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseArguments("create_file", tt.raw))
		})
	}
}
