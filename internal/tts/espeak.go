// Package tts reads responses aloud through espeak-ng.
package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

int
espeak_say(const char *text, const char *lang)
{
	if (!text)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	if (lang && lang[0])
	{
		espeak_VOICE specs = { .languages = lang };
		espeak_SetVoiceByProperties(&specs);
	}

	espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// Espeak speaks synchronously. Calls are serialized since espeak-ng keeps
// global state.
type Espeak struct {
	Language string // voice language, e.g. "en" or "ru"; empty keeps the default

	mu sync.Mutex
}

func (e *Espeak) Speak(text string) error {
	if text == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	var clang *C.char
	if e.Language != "" && e.Language != "auto" {
		clang = C.CString(e.Language)
		defer C.free(unsafe.Pointer(clang))
	}

	if rc := C.espeak_say(ctext, clang); rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}
	return nil
}
