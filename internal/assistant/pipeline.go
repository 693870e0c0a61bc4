package assistant

import (
	"context"
	"fmt"
	log "log/slog"

	"voxassist/internal/tasks"
)

// Transcriber turns 16 kHz mono PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm16k []float32) (string, error)
}

// Output is what the presentation layer shows for one request.
type Output struct {
	Transcription string       `json:"transcription"`
	Response      string       `json:"response"`
	Tasks         []tasks.Task `json:"tasks"`
}

type Pipeline struct {
	stt     Transcriber
	session *Session
}

// NewPipeline wires a transcriber in front of the session. stt may be nil
// when only text input is used.
func NewPipeline(stt Transcriber, session *Session) *Pipeline {
	return &Pipeline{stt: stt, session: session}
}

func (p *Pipeline) Run(ctx context.Context, pcm16k []float32) (Output, error) {
	if len(pcm16k) == 0 {
		return Output{}, ErrNoAudio
	}
	if p.stt == nil {
		return Output{}, fmt.Errorf("no transcriber configured")
	}

	text, err := p.stt.Transcribe(ctx, pcm16k)
	if err != nil {
		return Output{}, fmt.Errorf("transcribe: %w", err)
	}
	log.Info("Transcribed", "text", text)

	return p.RunText(ctx, text)
}

func (p *Pipeline) RunText(ctx context.Context, text string) (Output, error) {
	reply, err := p.session.Handle(ctx, text)
	if err != nil {
		return Output{Transcription: text}, err
	}
	return Output{
		Transcription: text,
		Response:      reply.Text(),
		Tasks:         reply.Tasks,
	}, nil
}
