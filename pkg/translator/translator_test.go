package translator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	calls []string
	fail  bool
}

func (f *fakeEngine) TranslateText(_ context.Context, text, srcCode, dstCode string) (string, error) {
	f.calls = append(f.calls, srcCode+"->"+dstCode)
	if f.fail {
		return "", errors.New("throttled")
	}
	return fmt.Sprintf("%s[%s->%s]", text, srcCode, dstCode), nil
}

func TestIdentityPairSkipsEngine(t *testing.T) {
	engine := &fakeEngine{}
	tr := New(engine, nil)

	out, err := tr.Translate(context.Background(), "hola", "es", "es")
	require.NoError(t, err)
	assert.Equal(t, "hola", out)
	assert.Empty(t, engine.calls)
}

func TestEmptyTextSkipsEngine(t *testing.T) {
	engine := &fakeEngine{}
	tr := New(engine, nil)

	out, err := tr.Translate(context.Background(), "", "es", "ja")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, engine.calls)
}

func TestPivotEndpointSingleHop(t *testing.T) {
	engine := &fakeEngine{}
	tr := New(engine, nil)

	out, err := tr.Translate(context.Background(), "hola", "es", "en")
	require.NoError(t, err)
	assert.Equal(t, "hola[es->en]", out)
	assert.Equal(t, []string{"es->en"}, engine.calls)

	_, err = tr.Translate(context.Background(), "hello", "en", "ja")
	require.NoError(t, err)
	assert.Equal(t, []string{"es->en", "en->ja"}, engine.calls)
}

func TestNonPivotPairRoutesThroughPivot(t *testing.T) {
	engine := &fakeEngine{}
	tr := New(engine, nil)

	out, err := tr.Translate(context.Background(), "hola", "es", "ja")
	require.NoError(t, err)
	assert.Equal(t, "hola[es->en][en->ja]", out)
	assert.Equal(t, []string{"es->en", "en->ja"}, engine.calls)
}

func TestFailureFallsBackToOriginalText(t *testing.T) {
	engine := &fakeEngine{fail: true}
	tr := New(engine, nil)

	out, err := tr.Translate(context.Background(), "hola", "es", "ja")
	assert.Error(t, err)
	assert.Equal(t, "hola", out)
}

func TestResultIsCached(t *testing.T) {
	engine := &fakeEngine{}
	tr := New(engine, nil)

	first, err := tr.Translate(context.Background(), "hola", "es", "ja")
	require.NoError(t, err)
	second, err := tr.Translate(context.Background(), "hola", "es", "ja")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, engine.calls, 2, "second call must be served from cache")
}

func TestFailureIsNotCached(t *testing.T) {
	engine := &fakeEngine{fail: true}
	tr := New(engine, nil)

	_, err := tr.Translate(context.Background(), "hola", "es", "ja")
	require.Error(t, err)

	engine.fail = false
	out, err := tr.Translate(context.Background(), "hola", "es", "ja")
	require.NoError(t, err)
	assert.Equal(t, "hola[es->en][en->ja]", out)
}
