package directive

import "strings"

// WaitingNotice is appended whenever the impersonation guard fires.
const WaitingNotice = "(Waiting for your response...)"

// GuardPlayerSpeech truncates model output at the first literal "Player:"
// marker. The model must never speak for the player; everything from the
// marker on is discarded and replaced with a fixed waiting notice.
func GuardPlayerSpeech(text string) string {
	idx := strings.Index(text, "Player:")
	if idx < 0 {
		return text
	}
	kept := strings.TrimSpace(text[:idx])
	if kept == "" {
		return WaitingNotice
	}
	return kept + "\n\n" + WaitingNotice
}
