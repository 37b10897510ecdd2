package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SujaySAK777/StreamIQ/models"
	"go.uber.org/zap"
)

const defaultCopyAPIURL = "https://api.crewai.ai/v1/generate"

// RemoteCopyPresenter asks an external text-generation API for the
// rationale and falls back to the wrapped presenter's copy on any failure.
type RemoteCopyPresenter struct {
	fallback Presenter
	apiKey   string
	url      string
	client   *http.Client
	logger   *zap.Logger
}

// NewRemoteCopyPresenter wraps fallback. With an empty apiKey it returns
// fallback unchanged, so the remote path stays dormant unless configured.
func NewRemoteCopyPresenter(fallback Presenter, apiKey, url string, logger *zap.Logger) Presenter {
	if apiKey == "" {
		return fallback
	}
	if url == "" {
		url = defaultCopyAPIURL
	}
	return &RemoteCopyPresenter{
		fallback: fallback,
		apiKey:   apiKey,
		url:      url,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
	}
}

type copyRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type copyResponse struct {
	Output string `json:"output"`
}

// Present implements Presenter.
func (p *RemoteCopyPresenter) Present(ctx context.Context, evt models.NormalizedEvent, c models.Candidate, drivers []models.Driver, uplift float64) models.UICard {
	card := p.fallback.Present(ctx, evt, c, drivers, uplift)

	rationale, err := p.generate(ctx, evt, c, uplift)
	if err != nil {
		p.logger.Warn("Copy generation failed, using template rationale", zap.Error(err))
		return card
	}
	if rationale != "" {
		card.Rationale = rationale
	}
	return card
}

func (p *RemoteCopyPresenter) generate(ctx context.Context, evt models.NormalizedEvent, c models.Candidate, uplift float64) (string, error) {
	input, err := json.Marshal(map[string]interface{}{
		"product":      evt.DisplayName(),
		"promotion":    PromotionLabel(c),
		"uplift_score": uplift,
	})
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(copyRequest{
		Prompt:    "Create a short 20-word rationale for why offering a promotion to this product makes sense. Input: " + string(input),
		MaxTokens: 80,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("copy api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("copy api error: status=%d body=%s", resp.StatusCode, string(b))
	}
	var out copyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode copy api response: %w", err)
	}
	return out.Output, nil
}
