package synthesizer

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"go.uber.org/zap"

	"github.com/voxlink-ai/voxlink/pkg/languages"
)

// Polly synthesizes speech through Amazon Polly, MP3 output.
type Polly struct {
	client *polly.Client
	logger *zap.Logger
}

func NewPolly(client *polly.Client, logger *zap.Logger) *Polly {
	if logger == nil {
		logger = zap.L()
	}
	return &Polly{client: client, logger: logger}
}

func (p *Polly) Synthesize(ctx context.Context, text, locale string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}
	voice, engine, ok := languages.Voice(locale)
	if !ok {
		p.logger.Debug("locale has no voice, captions only", zap.String("locale", locale))
		return nil, nil
	}

	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: types.OutputFormatMp3,
		VoiceId:      types.VoiceId(voice),
		Engine:       types.Engine(engine),
	})
	if err != nil {
		return nil, fmt.Errorf("polly synthesize: %w", err)
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("polly audio stream: %w", err)
	}
	return audio, nil
}
