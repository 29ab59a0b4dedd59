// Package languages maps canonical meeting locales onto the per-provider
// codes the pipeline needs: a streaming-ASR language code, an Amazon
// Translate code, and the Polly voice that speaks the locale, when one exists.
package languages

// PivotCode is the intermediate translation language. Pairs where neither
// endpoint speaks it are routed through it in two hops.
const PivotCode = "en"

// Language is one row of the registry.
type Language struct {
	Locale    string // canonical locale, e.g. "en-US"
	ASRCode   string // streaming recognizer language code
	MTCode    string // Amazon Translate code
	TTSVoice  string // Polly voice id, empty for text-only targets
	TTSEngine string // Polly engine, "neural" or "standard"
}

var table = map[string]Language{
	"en-US": {Locale: "en-US", ASRCode: "en-US", MTCode: "en", TTSVoice: "Joanna", TTSEngine: "neural"},
	"es-US": {Locale: "es-US", ASRCode: "es-US", MTCode: "es", TTSVoice: "Lupe", TTSEngine: "neural"},
	"fr-FR": {Locale: "fr-FR", ASRCode: "fr-FR", MTCode: "fr", TTSVoice: "Lea", TTSEngine: "neural"},
	"de-DE": {Locale: "de-DE", ASRCode: "de-DE", MTCode: "de", TTSVoice: "Vicki", TTSEngine: "neural"},
	"it-IT": {Locale: "it-IT", ASRCode: "it-IT", MTCode: "it", TTSVoice: "Bianca", TTSEngine: "neural"},
	"pt-BR": {Locale: "pt-BR", ASRCode: "pt-BR", MTCode: "pt", TTSVoice: "Camila", TTSEngine: "neural"},
	"ja-JP": {Locale: "ja-JP", ASRCode: "ja-JP", MTCode: "ja", TTSVoice: "Takumi", TTSEngine: "neural"},
	"ko-KR": {Locale: "ko-KR", ASRCode: "ko-KR", MTCode: "ko", TTSVoice: "Seoyeon", TTSEngine: "neural"},
	"zh-CN": {Locale: "zh-CN", ASRCode: "zh-CN", MTCode: "zh", TTSVoice: "Zhiyu", TTSEngine: "neural"},
	"hi-IN": {Locale: "hi-IN", ASRCode: "hi-IN", MTCode: "hi", TTSVoice: "Kajal", TTSEngine: "neural"},
	"ar-SA": {Locale: "ar-SA", ASRCode: "ar-SA", MTCode: "ar", TTSVoice: "Zeina", TTSEngine: "standard"},
	// Transcribe understands Thai but Polly has no Thai voice; captions only.
	"th-TH": {Locale: "th-TH", ASRCode: "th-TH", MTCode: "th"},
}

var mtByASR = func() map[string]string {
	m := make(map[string]string, len(table))
	for _, l := range table {
		m[l.ASRCode] = l.MTCode
	}
	return m
}()

// Resolve returns the registry row for a locale. Unknown locales resolve to
// the pivot language so a bad client value degrades instead of failing.
func Resolve(locale string) Language {
	if l, ok := table[locale]; ok {
		return l
	}
	return table["en-US"]
}

// ASR returns the recognizer language code for a locale.
func ASR(locale string) string {
	return Resolve(locale).ASRCode
}

// MT returns the Amazon Translate code for a locale.
func MT(locale string) string {
	return Resolve(locale).MTCode
}

// MTFromASR converts a recognizer language code to a Translate code.
// Unknown codes collapse to the pivot.
func MTFromASR(asrCode string) string {
	if mt, ok := mtByASR[asrCode]; ok {
		return mt
	}
	return PivotCode
}

// Voice returns the Polly voice and engine for a locale. ok is false for
// text-only targets.
func Voice(locale string) (voice, engine string, ok bool) {
	l := Resolve(locale)
	if l.TTSVoice == "" {
		return "", "", false
	}
	return l.TTSVoice, l.TTSEngine, true
}

// Locales lists every registered canonical locale.
func Locales() []string {
	out := make([]string, 0, len(table))
	for locale := range table {
		out = append(out, locale)
	}
	return out
}
