package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is the primary provider: a thin HTTP client for the external
// prediction service. One attempt per request, bounded by the client timeout.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) PredictPrice(ctx context.Context, req PredictionRequest) (*Prediction, error) {
	var out Prediction
	if err := c.post(ctx, "/predict-price", req, &out); err != nil {
		return nil, err
	}
	if out.ModelVersion == "" {
		out.ModelVersion = "1.0"
	}
	return &out, nil
}

func (c *Client) Recommend(ctx context.Context, req RecommendationRequest) (*RecommendationResult, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/recommendations", req, &raw); err != nil {
		return nil, err
	}
	return &RecommendationResult{Recommendations: raw, Source: "ml_service"}, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("insight: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("insight: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("insight: call ml service: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("insight: ml service returned %s", res.Status)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("insight: decode response: %w", err)
	}
	return nil
}
