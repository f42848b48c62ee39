package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	systranHost    = "api-systran-systran-translation-v1.p.rapidapi.com"
	systranBaseURL = "https://" + systranHost
)

type SystranService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSystranService(cfg ServiceConfig) *SystranService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = systranBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SystranService{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *SystranService) Name() string {
	return "systran"
}

func (s *SystranService) TranslateBatch(ctx context.Context, texts []string, target string) ([]string, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("Systran API key required")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	systranReq := map[string]interface{}{
		"text":   texts,
		"target": target,
		"format": "text",
	}

	jsonData, err := json.Marshal(systranReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/translation/text/translate", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-RapidAPI-Key", s.apiKey)
	httpReq.Header.Set("X-RapidAPI-Host", systranHost)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var systranResp struct {
		Outputs []struct {
			Output string `json:"output"`
			Error  string `json:"error"`
		} `json:"outputs"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&systranResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if err := checkCount(s.Name(), len(systranResp.Outputs), len(texts)); err != nil {
		return nil, err
	}

	out := make([]string, len(systranResp.Outputs))
	for i, o := range systranResp.Outputs {
		if o.Error != "" {
			return nil, fmt.Errorf("systran: text %d: %s", i, o.Error)
		}
		out[i] = o.Output
	}
	return out, nil
}
