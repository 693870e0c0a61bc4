// Package audioconv decodes audio files into the mono 16 kHz float32 PCM
// whisper expects.
package audioconv

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

const TargetRate = 16000

type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatMP3
	FormatOgg
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	case FormatOgg:
		return "ogg"
	default:
		return "unknown"
	}
}

var ErrUnsupported = errors.New("unsupported audio format (supported: wav/mp3/ogg-vorbis/ogg-opus)")

type Options struct {
	MaxSamples int // 0 = no limit
}

// DecodeFile reads path and returns mono PCM at TargetRate.
func DecodeFile(ctx context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format, err := Detect(path, f)
	if err != nil {
		return nil, err
	}
	return Decode(ctx, f, format, opt)
}

// Detect picks the format from the extension, falling back to the magic
// bytes. r is rewound before returning.
func Detect(path string, r io.ReadSeeker) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	case ".ogg", ".oga", ".opus":
		return FormatOgg, nil
	}

	magic := make([]byte, 4)
	n, _ := io.ReadFull(r, magic)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return FormatUnknown, err
	}
	switch {
	case n == 4 && string(magic) == "RIFF":
		return FormatWAV, nil
	case n == 4 && string(magic) == "OggS":
		return FormatOgg, nil
	case n >= 3 && string(magic[:3]) == "ID3":
		return FormatMP3, nil
	case n >= 2 && magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		return FormatMP3, nil
	}
	return FormatUnknown, ErrUnsupported
}

func Decode(ctx context.Context, r io.ReadSeeker, format Format, opt Options) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		pcm      []float32
		channels int
		rate     int
		err      error
	)
	switch format {
	case FormatWAV:
		pcm, channels, rate, err = decodeWAV(r)
	case FormatMP3:
		pcm, channels, rate, err = decodeMP3(r)
	case FormatOgg:
		pcm, channels, rate, err = decodeOgg(r)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return normalize(pcm, channels, rate, opt), nil
}

// normalize downmixes, resamples to TargetRate and applies MaxSamples.
func normalize(pcm []float32, channels, rate int, opt Options) []float32 {
	x := downmix(pcm, channels)
	x = resample(x, rate, TargetRate)
	if opt.MaxSamples > 0 && len(x) > opt.MaxSamples {
		x = x[:opt.MaxSamples]
	}
	return x
}

func decodeWAV(r io.ReadSeeker) ([]float32, int, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, 0, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, 0, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	channels, rate := 1, 44100
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			rate = buf.Format.SampleRate
		}
	}
	return intsToFloat(buf.Data, depth), channels, rate, nil
}

// go-mp3 always yields 16-bit little-endian stereo.
func decodeMP3(r io.Reader) ([]float32, int, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, 0, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, 0, err
	}
	samples := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw[:len(samples)*2]), binary.LittleEndian, samples); err != nil {
		return nil, 0, 0, err
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	return int16sToFloat(samples), 2, rate, nil
}

// decodeOgg tries Vorbis first and falls back to Opus.
func decodeOgg(r io.ReadSeeker) ([]float32, int, int, error) {
	pcm, format, verr := oggvorbis.ReadAll(r)
	if verr == nil && format != nil && format.Channels > 0 && format.SampleRate > 0 {
		return pcm, format.Channels, format.SampleRate, nil
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, 0, 0, err
	}
	pcm, channels, err := decodeOpus(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("neither vorbis (%v) nor opus (%w)", verr, err)
	}
	return pcm, channels, 48000, nil
}

// Opus always decodes at 48 kHz.
func decodeOpus(r io.ReadSeeker) ([]float32, int, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	defer dec.Destroy()

	channels := dec.ChannelCount()
	if channels <= 0 {
		channels = 1
	}

	var (
		out []float32
		buf = make([]int16, 24_000*channels)
	)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			out = append(out, int16sToFloat(buf[:n*channels])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}
	if len(out) == 0 {
		return nil, 0, errors.New("empty opus stream")
	}
	return out, channels, nil
}
