// Package speech requests synthesized audio for an analysis text. Audio is
// cheap to regenerate, so nothing here is cached.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/mk-ultron/ai-image-analysis/internal/config"
	"github.com/mk-ultron/ai-image-analysis/internal/provider"
	"github.com/sirupsen/logrus"
)

const providerName = "speech"

// ErrEmptyText rejects synthesis requests with nothing to say.
var ErrEmptyText = errors.New("speech: text is empty")

type Client struct {
	httpClient *http.Client
	cfg        *config.Config
	log        *logrus.Entry
}

func NewClient(logger *logrus.Logger, cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.TTSTimeout},
		cfg:        cfg,
		log:        logger.WithField("component", "speech_client"),
	}
}

type speechRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
	Input string `json:"input"`
}

// Synthesize returns mp3 bytes for the text using the configured voice.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	payload, err := json.Marshal(speechRequest{
		Model: c.cfg.TTSModel,
		Voice: c.cfg.TTSVoice,
		Input: text,
	})
	if err != nil {
		return nil, &provider.Error{Provider: providerName, Reason: provider.ReasonMalformed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TTSBaseURL+"/v1/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, &provider.Error{Provider: providerName, Reason: provider.ReasonUpstream, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := provider.ReasonUpstream
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			reason = provider.ReasonTimeout
		}
		c.log.WithError(err).Error("Speech request failed")
		return nil, &provider.Error{Provider: providerName, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"duration":    time.Since(start),
		}).Error("Speech provider returned error status")
		return nil, &provider.Error{
			Provider: providerName,
			Reason:   provider.ReasonForStatus(resp.StatusCode),
			Status:   resp.StatusCode,
			Message:  string(body),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.Error{Provider: providerName, Reason: provider.ReasonMalformed, Err: err}
	}
	if len(audio) == 0 {
		return nil, &provider.Error{
			Provider: providerName,
			Reason:   provider.ReasonMalformed,
			Message:  "provider returned empty audio",
		}
	}

	c.log.WithFields(logrus.Fields{
		"bytes":    len(audio),
		"duration": time.Since(start),
	}).Debug("Speech synthesized")
	return audio, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
