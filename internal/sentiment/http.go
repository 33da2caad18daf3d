package sentiment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

const ProviderHTTP = "http"

type scoreRequest struct {
	Content string `json:"content"`
}

type scoreResponse struct {
	Positive *float64 `json:"positive"`
}

// HTTPOracle scores text through a JSON endpoint answering {"positive": <float>}.
type HTTPOracle struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPOracle(url, apiKey string, client *http.Client) *HTTPOracle {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPOracle{url: url, apiKey: apiKey, client: client}
}

func (o *HTTPOracle) Score(ctx context.Context, text string) (score float64, err error) {
	start := time.Now()
	defer func() { observe(ProviderHTTP, start, err) }()

	body, err := json.Marshal(scoreRequest{Content: text})
	if err != nil {
		return 0, fmt.Errorf("failed to encode sentiment request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build sentiment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sentiment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("sentiment endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode sentiment response: %w", err)
	}
	if out.Positive == nil {
		return 0, fmt.Errorf("sentiment response has no positive score")
	}
	if *out.Positive < 0 || *out.Positive > 1 {
		return 0, fmt.Errorf("sentiment score %v outside [0,1]", *out.Positive)
	}
	return *out.Positive, nil
}
