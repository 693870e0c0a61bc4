// Package nlu talks to the language model: it sends the transcription with
// the tool catalog attached and returns the reply as plain Go values.
package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"

	"voxassist/internal/tools"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

const DefaultModel = openai.ChatModelGPT5Nano

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Messages []Message
	Tools    []tools.Schema
}

// Reply is the model's answer. Content is nil when the model sent no text.
type Reply struct {
	Content   *string
	ToolCalls []tools.RawCall
}

var ErrNoChoices = errors.New("no choices in response")

type Options struct {
	Model        string
	SystemPrompt string
}

type Client struct {
	api          openai.Client
	model        string
	systemPrompt string
}

func NewClient(api openai.Client, opt Options) *Client {
	model := opt.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:          api,
		model:        model,
		systemPrompt: opt.SystemPrompt,
	}
}

func (c *Client) Complete(ctx context.Context, req Request) (Reply, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if c.systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(c.systemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		default:
			return Reply{}, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
		Tools:    ToolParams(req.Tools),
	}

	log.Debug("Calling model", "model", c.model, "messages", len(messages), "tools", len(params.Tools))

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return Reply{}, fmt.Errorf("chat completion: %w", err)
	}
	return FromCompletion(resp)
}

// ToolParams converts the catalog into OpenAI function tools.
func ToolParams(catalog []tools.Schema) []openai.ChatCompletionToolUnionParam {
	if len(catalog) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(catalog))
	for _, s := range catalog {
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        s.Name,
			Description: openai.String(s.Description),
			Parameters:  openai.FunctionParameters(s.Parameters()),
		}))
	}
	return out
}

func FromCompletion(resp *openai.ChatCompletion) (Reply, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return Reply{}, ErrNoChoices
	}
	msg := resp.Choices[0].Message

	var out Reply
	if msg.Content != "" {
		content := msg.Content
		out.Content = &content
	}

	for _, tc := range msg.ToolCalls {
		switch tc.Type {
		case "custom":
			out.ToolCalls = append(out.ToolCalls, tools.RawCall{Name: tc.Custom.Name})
		default:
			out.ToolCalls = append(out.ToolCalls, tools.RawCall{
				Name:      tc.Function.Name,
				Arguments: parseArguments(tc.Function.Name, tc.Function.Arguments),
			})
		}
	}

	log.Debug("Model replied", "content", out.Content != nil, "tool_calls", len(out.ToolCalls))
	return out, nil
}

// parseArguments flattens the JSON argument object to strings. Strings pass
// through untouched, anything else keeps its JSON spelling.
func parseArguments(name, raw string) map[string]string {
	args := map[string]string{}
	if raw == "" {
		return args
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		log.Warn("Malformed tool arguments", "tool", name, "raw", raw, "err", err)
		return args
	}

	for k, v := range obj {
		switch val := v.(type) {
		case string:
			args[k] = val
		case nil:
			args[k] = ""
		default:
			b, err := json.Marshal(val)
			if err != nil {
				args[k] = fmt.Sprint(val)
				continue
			}
			args[k] = string(b)
		}
	}
	return args
}
