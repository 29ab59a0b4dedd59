// Package synthesizer renders translated text to speech for the listener's
// locale. Locales without a configured voice are caption-only and synthesize
// to nil without error.
package synthesizer

import "context"

// Service produces spoken audio for text.
type Service interface {
	// Synthesize returns encoded audio for text in the given locale, or
	// (nil, nil) when the locale has no voice.
	Synthesize(ctx context.Context, text, locale string) ([]byte, error)
}
