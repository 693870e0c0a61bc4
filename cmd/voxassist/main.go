package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/spf13/pflag"

	"voxassist/internal/app"
	"voxassist/internal/assistant"
	"voxassist/internal/config"
	"voxassist/internal/logging"
	"voxassist/internal/present"
	"voxassist/internal/tts"
	"voxassist/pkg/audioconv"
	"voxassist/pkg/stt"
)

const noAudioMessage = "Please provide an audio input."

func main() {
	os.Exit(run())
}

func run() int {
	audioPath := cli.StringP("audio", "a", "", "Audio file to transcribe (wav, mp3, ogg)")
	text := cli.StringP("text", "t", "", "Text request, skips speech recognition")
	asJSON := cli.Bool("json", false, "Print the output as JSON instead of panes")
	config.RegisterFlags(cli.CommandLine)
	cli.Parse()

	if *audioPath == "" && *text == "" {
		fmt.Println(noAudioMessage)
		return 2
	}

	cfg, err := config.Load(cli.CommandLine)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logging.Setup(level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var voice present.Voice
	if cfg.Speak {
		voice = &tts.Espeak{Language: cfg.Language}
	}
	a, err := app.New(cfg, os.Stdout, voice)
	if err != nil {
		log.Error("Failed to boot", "err", err)
		return 1
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var out assistant.Output
	if *audioPath != "" {
		out, err = runAudio(ctx, a, cfg, *audioPath)
	} else {
		out, err = a.Pipeline(nil).RunText(ctx, *text)
	}

	switch {
	case errors.Is(err, assistant.ErrNoAudio), errors.Is(err, assistant.ErrEmptyInput):
		fmt.Println(noAudioMessage)
		return 2
	case *asJSON:
		return printJSON(out, err)
	}

	if perr := a.Present(ctx, out, err); perr != nil {
		log.Error("Failed to print output", "err", perr)
	}
	if err != nil {
		return 1
	}
	return 0
}

func runAudio(ctx context.Context, a *app.App, cfg config.Config, path string) (assistant.Output, error) {
	pcm, err := audioconv.DecodeFile(ctx, path, audioconv.Options{})
	if errors.Is(err, os.ErrNotExist) {
		return assistant.Output{}, assistant.ErrNoAudio
	}
	if err != nil {
		return assistant.Output{}, err
	}
	log.Debug("Decoded audio", "path", path, "samples", len(pcm))

	tr, err := stt.NewTranscriber(cfg.WhisperModel, stt.Options{
		Language: cfg.Language,
		Threads:  cfg.Threads,
	})
	if err != nil {
		return assistant.Output{}, err
	}
	defer tr.Close()

	return a.Pipeline(tr).Run(ctx, pcm)
}

func printJSON(out assistant.Output, runErr error) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	payload := struct {
		assistant.Output
		Error string `json:"error,omitempty"`
	}{Output: out}
	if runErr != nil {
		payload.Error = runErr.Error()
	}
	if err := enc.Encode(payload); err != nil {
		log.Error("Failed to encode output", "err", err)
		return 1
	}
	if runErr != nil {
		return 1
	}
	return 0
}
