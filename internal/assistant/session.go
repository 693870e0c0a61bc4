package assistant

import (
	"context"
	"errors"
	log "log/slog"
	"strings"
	"sync"

	"voxassist/internal/nlu"
	"voxassist/internal/tools"
)

var (
	// ErrNoAudio means no audio reached the pipeline: no file, or an empty recording.
	ErrNoAudio = errors.New("please provide an audio input")
	// ErrEmptyInput means there was nothing to send to the model.
	ErrEmptyInput = errors.New("empty input text")
)

// Model is the language model collaborator.
type Model interface {
	Complete(ctx context.Context, req nlu.Request) (nlu.Reply, error)
}

// ModelError wraps any failure to get a reply from the model.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string { return "model invocation failed: " + e.Err.Error() }

func (e *ModelError) Unwrap() error { return e.Err }

// Session runs one request at a time: the text goes to the model as the only
// user message, with the tool catalog attached, and the reply is interpreted.
// Nothing carries over between requests.
type Session struct {
	mu      sync.Mutex
	model   Model
	interp  *Interpreter
	catalog []tools.Schema
}

func NewSession(model Model, interp *Interpreter, catalog []tools.Schema) *Session {
	return &Session{
		model:   model,
		interp:  interp,
		catalog: catalog,
	}
}

func (s *Session) Handle(ctx context.Context, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.model.Complete(ctx, nlu.Request{
		Messages: []nlu.Message{{Role: nlu.RoleUser, Content: text}},
		Tools:    s.catalog,
	})
	if err != nil {
		return Reply{}, &ModelError{Err: err}
	}

	reply := s.interp.Interpret(ctx, resp)
	log.Info("Request handled", "tool_calls", len(resp.ToolCalls), "results", len(reply.Results))
	return reply, nil
}
