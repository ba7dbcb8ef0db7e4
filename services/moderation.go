package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrModerationUnavailable - классификатор не отработал. Вызывающий обязан
// отличать этот случай от успешного вердикта "не токсично".
var ErrModerationUnavailable = errors.New("moderation unavailable")

const toxicLabel = "toxic"

// Verdict - нормализованный результат классификатора
type Verdict struct {
	Severe bool    `json:"severe"`
	Score  float64 `json:"score"`
}

// ModerationClient ходит в внешний классификатор токсичности
type ModerationClient struct {
	URL             string
	APIKey          string
	SevereThreshold float64
	Client          *http.Client
}

func NewModerationClient(url, apiKey string, threshold float64, timeout time.Duration) *ModerationClient {
	if threshold <= 0 {
		threshold = 0.9
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ModerationClient{
		URL:             url,
		APIKey:          apiKey,
		SevereThreshold: threshold,
		Client:          &http.Client{Timeout: timeout},
	}
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify отправляет текст классификатору и возвращает вердикт.
// Таймаут и не-2xx статус - ошибка, отсутствие метки toxic - score 0.
func (mc *ModerationClient) Classify(ctx context.Context, text string) (Verdict, error) {
	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: marshal request: %v", ErrModerationUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mc.URL, bytes.NewReader(payload))
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrModerationUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if mc.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+mc.APIKey)
	}

	resp, err := mc.Client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrModerationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Verdict{}, fmt.Errorf("%w: classifier status %d: %s", ErrModerationUnavailable, resp.StatusCode, body)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: read response: %v", ErrModerationUnavailable, err)
	}

	scores, err := normalizeScores(raw)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrModerationUnavailable, err)
	}

	var toxicScore float64
	for _, s := range scores {
		if s.Label == toxicLabel {
			toxicScore = s.Score
			break
		}
	}

	return Verdict{
		Severe: toxicScore > mc.SevereThreshold,
		Score:  toxicScore,
	}, nil
}

// normalizeScores приводит оба формата ответа ([{label,score}] и [[{label,score}]])
// к плоскому списку до любой доменной логики
func normalizeScores(raw []byte) ([]labelScore, error) {
	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}

	return nil, fmt.Errorf("unexpected classifier response shape: %s", truncate(raw, 256))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
