package languages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKnown(t *testing.T) {
	l := Resolve("es-US")
	assert.Equal(t, "es-US", l.ASRCode)
	assert.Equal(t, "es", l.MTCode)
	assert.Equal(t, "Lupe", l.TTSVoice)
}

func TestResolveUnknownFallsBackToPivot(t *testing.T) {
	l := Resolve("xx-XX")
	assert.Equal(t, PivotCode, l.MTCode)
}

func TestMTFromASRRoundTrip(t *testing.T) {
	// mtFromAsr(asr(locale)) must agree with mt(locale) for every row.
	for _, locale := range Locales() {
		assert.Equal(t, MT(locale), MTFromASR(ASR(locale)), "locale %s", locale)
	}
}

func TestMTFromASRUnknown(t *testing.T) {
	assert.Equal(t, PivotCode, MTFromASR("tlh-KX"))
}

func TestVoicelessLocale(t *testing.T) {
	_, _, ok := Voice("th-TH")
	assert.False(t, ok)

	voice, engine, ok := Voice("ja-JP")
	assert.True(t, ok)
	assert.Equal(t, "Takumi", voice)
	assert.Equal(t, "neural", engine)
}
