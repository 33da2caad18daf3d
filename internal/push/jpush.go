package push

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"gwi.com/diary-notes/internal/metrics"
)

const (
	ProviderJPush = "jpush"

	DefaultJPushURL = "https://api.jpush.cn/v3/push"
)

type jpushPayload struct {
	Platform     string            `json:"platform"`
	Audience     jpushAudience     `json:"audience"`
	Notification jpushNotification `json:"notification"`
}

type jpushAudience struct {
	Alias []string `json:"alias"`
}

type jpushNotification struct {
	Alert string `json:"alert"`
}

// JPushSender delivers notifications through the JPush v3 push API, addressing
// devices by the user id registered as their alias.
type JPushSender struct {
	url          string
	appKey       string
	masterSecret string
	client       *http.Client
	logger       *zap.Logger
}

func NewJPushSender(url, appKey, masterSecret string, client *http.Client, logger *zap.Logger) *JPushSender {
	if url == "" {
		url = DefaultJPushURL
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JPushSender{
		url:          url,
		appKey:       appKey,
		masterSecret: masterSecret,
		client:       client,
		logger:       logger,
	}
}

func (s *JPushSender) Push(ctx context.Context, userID int64, text string) error {
	err := s.send(ctx, userID, text)
	if err != nil {
		metrics.PushFailures.WithLabelValues(ProviderJPush).Inc()
		return err
	}
	s.logger.Debug("push delivered", zap.Int64("userID", userID))
	return nil
}

func (s *JPushSender) send(ctx context.Context, userID int64, text string) error {
	body, err := json.Marshal(jpushPayload{
		Platform:     "all",
		Audience:     jpushAudience{Alias: []string{strconv.FormatInt(userID, 10)}},
		Notification: jpushNotification{Alert: text},
	})
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.appKey, s.masterSecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
