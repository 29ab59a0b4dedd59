package recognizer

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming"
	"go.uber.org/zap"
)

// Provider selects the streaming recognizer backend.
type Provider string

const (
	ProviderAWS      Provider = "aws"
	ProviderDeepgram Provider = "deepgram"
)

// Factory builds recognizer sessions for a configured provider.
type Factory struct {
	provider    Provider
	awsClient   *transcribestreaming.Client
	deepgramKey string
	logger      *zap.Logger
}

func NewFactory(provider Provider, awsClient *transcribestreaming.Client, deepgramKey string, logger *zap.Logger) (*Factory, error) {
	if logger == nil {
		logger = zap.L()
	}
	switch provider {
	case ProviderAWS:
		if awsClient == nil {
			return nil, fmt.Errorf("recognizer: provider %q needs a transcribe client", provider)
		}
	case ProviderDeepgram:
		if deepgramKey == "" {
			return nil, fmt.Errorf("recognizer: provider %q needs an api key", provider)
		}
	default:
		return nil, fmt.Errorf("recognizer: unknown provider %q", provider)
	}
	return &Factory{
		provider:    provider,
		awsClient:   awsClient,
		deepgramKey: deepgramKey,
		logger:      logger,
	}, nil
}

// NewSession opens a live recognizer session for one speaker. lang is the
// recognizer language code of the speaker's locale.
func (f *Factory) NewSession(lang string, handler TranscriptHandler) (Session, error) {
	switch f.provider {
	case ProviderAWS:
		return newAWSSession(f.awsClient, lang, handler, f.logger), nil
	case ProviderDeepgram:
		return newDeepgramSession(f.deepgramKey, lang, handler, f.logger)
	}
	return nil, fmt.Errorf("recognizer: unknown provider %q", f.provider)
}
