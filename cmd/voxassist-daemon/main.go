package main

import (
	"context"
	"errors"
	log "log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cli "github.com/spf13/pflag"

	"voxassist/internal/app"
	"voxassist/internal/assistant"
	"voxassist/internal/audio"
	"voxassist/internal/config"
	"voxassist/internal/ipc"
	"voxassist/internal/logging"
	"voxassist/internal/notify"
	"voxassist/internal/present"
	"voxassist/internal/tts"
	"voxassist/pkg/stt"
)

func main() {
	os.Exit(run())
}

func run() int {
	config.RegisterFlags(cli.CommandLine)
	cli.Parse()

	cfg, err := config.Load(cli.CommandLine)
	if err != nil {
		log.Error("Bad configuration", "err", err)
		return 1
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logging.Setup(level, os.Stdout)

	log.Info("Booting up")

	var voice present.Voice
	if cfg.Speak {
		voice = &tts.Espeak{Language: cfg.Language}
	}
	a, err := app.New(cfg, os.Stdout, voice)
	if err != nil {
		log.Error("Failed to init assistant", "err", err)
		return 1
	}
	defer a.Close()

	rec := audio.NewRecorder(audio.DefaultConfig())
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		return 1
	}
	defer rec.Close()

	log.Debug("Loaded recorder")

	whisper, err := stt.NewTranscriber(cfg.WhisperModel, stt.Options{
		Language: cfg.Language,
		Threads:  cfg.Threads,
	})
	if err != nil {
		log.Error("Failed to init whisper", "err", err)
		return 1
	}
	defer whisper.Close()

	log.Debug("Loaded whisper")

	srv, err := ipc.Listen(cfg.Socket)
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := &daemon{
		app:      a,
		rec:      rec,
		cue:      notify.NewCue(cfg.Beep),
		pipeline: a.Pipeline(whisper),
	}

	log.Info("Boot up - successful", "socket", srv.Addr())
	if err := srv.Serve(ctx, d.handle); err != nil {
		log.Error("Failed ipc server", "err", err)
		return 1
	}
	log.Info("Shutting down")
	return 0
}

type daemon struct {
	mu       sync.Mutex
	app      *app.App
	rec      *audio.Recorder
	cue      *notify.Cue
	pipeline *assistant.Pipeline
}

func (d *daemon) handle(ctx context.Context, msg ipc.ControlMessage) ipc.ControlReply {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, d.app.Config.Timeout)
	defer cancel()

	var (
		out assistant.Output
		err error
	)
	switch msg.Cmd {
	case ipc.CmdTrigger:
		out, err = d.listen(ctx)
	case ipc.CmdAsk:
		out, err = d.pipeline.RunText(ctx, msg.Text)
	default:
		log.Warn("Unknown command", "cmd", msg.Cmd)
		return ipc.ControlReply{Error: "unknown command: " + msg.Cmd}
	}

	if perr := d.app.Present(ctx, out, err); perr != nil {
		log.Warn("Failed to print output", "err", perr)
	}
	if err != nil {
		log.Error("Request failed", "cmd", msg.Cmd, "err", err)
		return ipc.ControlReply{Error: err.Error(), Output: &out}
	}
	return ipc.ControlReply{OK: true, Output: &out}
}

func (d *daemon) listen(ctx context.Context) (assistant.Output, error) {
	if err := d.cue.Play(); err != nil {
		log.Warn("Failed to play cue", "err", err)
	}

	log.Info("Starting listening")

	pcm, err := d.rec.RecordAuto(ctx)
	if errors.Is(err, audio.ErrNoSpeech) {
		return assistant.Output{}, assistant.ErrNoAudio
	}
	if err != nil {
		return assistant.Output{}, err
	}

	log.Info("Recorded", "samples", len(pcm))
	return d.pipeline.Run(ctx, pcm)
}
