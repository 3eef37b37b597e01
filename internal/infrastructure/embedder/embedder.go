package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DRSN-tech/marketplace-engine/internal/cfg"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
	"github.com/DRSN-tech/marketplace-engine/pkg/jitter"
	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
)

// Embedder — клиент внешней модели text -> vector. Модель stateless и
// иногда моргает, поэтому запросы повторяются с экспоненциальной
// задержкой и джиттером.
type Embedder struct {
	httpClient *http.Client
	cfg        *cfg.EmbedderCfg
	logger     logger.Logger
}

func NewEmbedder(cfg *cfg.EmbedderCfg, logger logger.Logger) *Embedder {
	return &Embedder{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger,
	}
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

// Embed возвращает вектор текста с retry-логикой и экспоненциальной задержкой.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	const (
		op         = "Embedder.Embed"
		baseJitter = 1 * time.Second
		maxJitter  = 30 * time.Second
	)

	for attempt := 0; attempt < m.cfg.MaxRetries; attempt++ {
		vector, err := m.embedOnce(ctx, text)
		if err == nil {
			return vector, nil
		}

		if attempt == m.cfg.MaxRetries-1 {
			return nil, e.Wrap(op, fmt.Errorf("all %d attempts failed: %w", m.cfg.MaxRetries, err))
		}

		sleepTime := jitter.ExponentialBackoff(
			baseJitter,
			maxJitter,
			attempt,
			jitter.DefaultJitter,
		)

		m.logger.Warnf("embedding failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	return nil, e.Wrap(op, fmt.Errorf("unreachable"))
}

func (m *Embedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	const op = "Embedder.embedOnce"

	body, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Addr+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, e.Wrap(op, fmt.Errorf("model responded with status %d", resp.StatusCode))
	}

	var res embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(res.Vector) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyVector)
	}
	if len(res.Vector) != m.cfg.VectorSize {
		return nil, e.Wrap(op, fmt.Errorf("%w: got %d, want %d", e.ErrVectorSizeMismatch, len(res.Vector), m.cfg.VectorSize))
	}

	return res.Vector, nil
}
