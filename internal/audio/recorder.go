// Package audio captures microphone input for the daemon.
package audio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Config tunes microphone capture.
type Config struct {
	SampleRate int
	FrameSize  int           // samples per read
	SilenceRMS float64       // frames at or below are silence
	Silence    time.Duration // trailing silence that ends an utterance
	MaxLength  time.Duration
}

func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		FrameSize:  320, // 20ms
		SilenceRMS: 0.015,
		Silence:    600 * time.Millisecond,
		MaxLength:  10 * time.Second,
	}
}

var ErrNoSpeech = errors.New("no speech recorded")

type Recorder struct {
	cfg Config
}

func NewRecorder(cfg Config) *Recorder {
	def := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = def.FrameSize
	}
	if cfg.SilenceRMS <= 0 {
		cfg.SilenceRMS = def.SilenceRMS
	}
	if cfg.Silence <= 0 {
		cfg.Silence = def.Silence
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = def.MaxLength
	}
	return &Recorder{cfg: cfg}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// RecordAuto records one utterance: capture starts at the first voiced frame
// and ends after cfg.Silence of quiet, cfg.MaxLength, or ctx cancellation.
func (r *Recorder) RecordAuto(ctx context.Context) ([]float32, error) {
	buf := make([]float32, r.cfg.FrameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.cfg.SampleRate), len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	g := newGate(r.cfg)
	out := make([]float32, 0, r.cfg.SampleRate*3)

	for i := 0; i < g.maxFrames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, err
		}

		keep, done := g.push(buf)
		if keep {
			out = append(out, buf...)
		}
		if done {
			break
		}
	}

	if len(out) == 0 {
		return nil, ErrNoSpeech
	}
	return out, nil
}

// RecordUntil records until stop is closed, maxDur elapses or ctx is done.
func (r *Recorder) RecordUntil(ctx context.Context, stop <-chan struct{}, maxDur time.Duration) ([]float32, error) {
	if maxDur <= 0 {
		maxDur = r.cfg.MaxLength
	}

	buf := make([]float32, 1024)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.cfg.SampleRate), len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	deadline := time.Now().Add(maxDur)
	out := make([]float32, 0, int(float64(r.cfg.SampleRate)*maxDur.Seconds()))

loop:
	for time.Now().Before(deadline) {
		select {
		case <-stop:
			break loop
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}

	if len(out) == 0 {
		return nil, ErrNoSpeech
	}
	return out, nil
}

// gate is the voice activity state machine behind RecordAuto.
type gate struct {
	threshold     float64
	silenceFrames int
	maxFrames     int

	speaking bool
	quiet    int
}

func newGate(cfg Config) *gate {
	frame := time.Duration(cfg.FrameSize) * time.Second / time.Duration(cfg.SampleRate)
	silence := int(cfg.Silence / frame)
	if silence < 1 {
		silence = 1
	}
	return &gate{
		threshold:     cfg.SilenceRMS,
		silenceFrames: silence,
		maxFrames:     int(cfg.MaxLength / frame),
	}
}

// push reports whether frame belongs to the utterance and whether the
// utterance has ended.
func (g *gate) push(frame []float32) (keep, done bool) {
	if frameRMS(frame) > g.threshold {
		g.speaking = true
		g.quiet = 0
		return true, false
	}
	if !g.speaking {
		return false, false
	}
	g.quiet++
	if g.quiet >= g.silenceFrames {
		return false, true
	}
	return true, false
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
