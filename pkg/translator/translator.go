// Package translator turns recognized text into the listener's language.
// Language pairs that include the pivot language translate in one hop;
// every other pair routes through the pivot in two.
package translator

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/voxlink-ai/voxlink/pkg/languages"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Engine performs one machine-translation hop between two language codes.
type Engine interface {
	TranslateText(ctx context.Context, text, srcCode, dstCode string) (string, error)
}

// Service is the pipeline-facing translator.
type Service interface {
	// Translate converts text from srcCode to dstCode (Amazon Translate
	// codes). On engine failure the original text is returned with the
	// error, so callers can caption untranslated rather than go silent.
	Translate(ctx context.Context, text, srcCode, dstCode string) (string, error)
}

// Translator routes hops through an Engine and memoizes results. Repeated
// partials for the same utterance mostly share a prefix, but finals often
// repeat the last partial verbatim, and those hit the cache.
type Translator struct {
	engine Engine
	cache  *gocache.Cache
	logger *zap.Logger
}

func New(engine Engine, logger *zap.Logger) *Translator {
	if logger == nil {
		logger = zap.L()
	}
	return &Translator{
		engine: engine,
		cache:  gocache.New(cacheTTL, cacheCleanup),
		logger: logger,
	}
}

func (t *Translator) Translate(ctx context.Context, text, srcCode, dstCode string) (string, error) {
	if text == "" || srcCode == dstCode {
		return text, nil
	}

	key := cacheKey(srcCode, dstCode, text)
	if v, ok := t.cache.Get(key); ok {
		return v.(string), nil
	}

	out, err := t.route(ctx, text, srcCode, dstCode)
	if err != nil {
		t.logger.Warn("translation failed, passing text through",
			zap.String("src", srcCode), zap.String("dst", dstCode), zap.Error(err))
		return text, err
	}

	t.cache.SetDefault(key, out)
	return out, nil
}

func (t *Translator) route(ctx context.Context, text, srcCode, dstCode string) (string, error) {
	if srcCode == languages.PivotCode || dstCode == languages.PivotCode {
		return t.engine.TranslateText(ctx, text, srcCode, dstCode)
	}

	pivoted, err := t.engine.TranslateText(ctx, text, srcCode, languages.PivotCode)
	if err != nil {
		return "", fmt.Errorf("pivot hop %s->%s: %w", srcCode, languages.PivotCode, err)
	}
	out, err := t.engine.TranslateText(ctx, pivoted, languages.PivotCode, dstCode)
	if err != nil {
		return "", fmt.Errorf("pivot hop %s->%s: %w", languages.PivotCode, dstCode, err)
	}
	return out, nil
}

func cacheKey(srcCode, dstCode, text string) string {
	return srcCode + "|" + dstCode + "|" + text
}
