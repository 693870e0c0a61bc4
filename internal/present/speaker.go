package present

import (
	"strings"

	"voxassist/internal/assistant"
)

type Voice interface {
	Speak(text string) error
}

// Speaker reads responses aloud without the status glyphs and code quotes.
type Speaker struct {
	voice Voice
}

func NewSpeaker(v Voice) *Speaker {
	return &Speaker{voice: v}
}

func (s *Speaker) Say(out assistant.Output) error {
	text := Spoken(out.Response)
	if text == "" {
		return nil
	}
	return s.voice.Speak(text)
}

var glyphs = []assistant.Status{
	assistant.StatusCreated,
	assistant.StatusRead,
	assistant.StatusDeleted,
	assistant.StatusEdited,
	assistant.StatusTaskAdded,
	assistant.StatusFailed,
	assistant.StatusUnsupported,
	assistant.StatusAnswer,
}

// Spoken strips the markup a voice should not read.
func Spoken(response string) string {
	var out []string
	for _, line := range strings.Split(response, "\n") {
		for _, g := range glyphs {
			line = strings.ReplaceAll(line, string(g), "")
		}
		line = strings.ReplaceAll(line, "`", "")
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
