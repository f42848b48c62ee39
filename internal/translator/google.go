package translator

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

type GoogleService struct {
	credentials string
	apiKey      string
}

func NewGoogleService(cfg ServiceConfig) *GoogleService {
	return &GoogleService{credentials: cfg.Credentials, apiKey: cfg.APIKey}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) clientOptions() []option.ClientOption {
	opts := []option.ClientOption{}
	if s.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	}
	if s.apiKey != "" {
		opts = append(opts, option.WithAPIKey(s.apiKey))
	}
	return opts
}

func (s *GoogleService) TranslateBatch(ctx context.Context, texts []string, target string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	targetLangTag, err := language.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target language: %w", err)
	}

	client, err := translate.NewClient(ctx, s.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	translations, err := client.Translate(ctx, texts, targetLangTag, &translate.Options{
		Format: translate.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if err := checkCount(s.Name(), len(translations), len(texts)); err != nil {
		return nil, err
	}

	out := make([]string, len(translations))
	for i, t := range translations {
		out[i] = t.Text
	}
	return out, nil
}
