package translator

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"
)

// AWSEngine is the Amazon Translate hop engine.
type AWSEngine struct {
	client *translate.Client
}

func NewAWSEngine(client *translate.Client) *AWSEngine {
	return &AWSEngine{client: client}
}

func (e *AWSEngine) TranslateText(ctx context.Context, text, srcCode, dstCode string) (string, error) {
	out, err := e.client.TranslateText(ctx, &translate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(srcCode),
		TargetLanguageCode: aws.String(dstCode),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.TranslatedText), nil
}
