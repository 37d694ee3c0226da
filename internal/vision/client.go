// Package vision calls the hosted vision-language model that turns an image
// into a text description.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mk-ultron/ai-image-analysis/internal/config"
	"github.com/mk-ultron/ai-image-analysis/internal/metadata"
	"github.com/mk-ultron/ai-image-analysis/internal/provider"
	"github.com/sirupsen/logrus"
)

const (
	providerName     = "vision"
	anthropicVersion = "2023-06-01"
)

const promptTemplate = `Analyze the following image and provide a detailed description.
Consider the following aspects:
1. Main subject(s) of the image
2. Any pop-culture references or recognizable figures
3. Composition and framing
4. Colors and overall mood
5. Any text visible in the image
6. Notable objects or background elements

Additional context from metadata:
- Camera: %s %s
- Date taken: %s
- GPS coordinates: %s, %s

Provide a comprehensive analysis in about 100-150 words.`

type Client struct {
	httpClient *http.Client
	cfg        *config.Config
	log        *logrus.Entry
	retryDelay time.Duration
}

type loggingTransport struct {
	log *logrus.Entry
}

func NewClient(logger *logrus.Logger, cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.VisionTimeout,
			Transport: &loggingTransport{log: logger.WithField("component", "vision_transport")},
		},
		cfg:        cfg,
		log:        logger.WithField("component", "vision_client"),
		retryDelay: 2 * time.Second,
	}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Describe sends the image plus a prompt built from its metadata and returns
// the model's description. Rate-limited calls are retried once after a fixed
// delay; all other failures surface immediately as *provider.Error.
func (c *Client) Describe(ctx context.Context, image []byte, mediaType string, meta metadata.Metadata) (string, error) {
	text, err := c.describeOnce(ctx, image, mediaType, meta)
	if err == nil {
		return text, nil
	}

	var perr *provider.Error
	if errors.As(err, &perr) && perr.Retryable() {
		c.log.WithField("delay", c.retryDelay).Warn("Vision provider rate limited, retrying once")
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return "", &provider.Error{Provider: providerName, Reason: provider.ReasonTimeout, Err: ctx.Err()}
		}
		return c.describeOnce(ctx, image, mediaType, meta)
	}

	return "", err
}

func (c *Client) describeOnce(ctx context.Context, image []byte, mediaType string, meta metadata.Metadata) (string, error) {
	prompt := fmt.Sprintf(promptTemplate,
		meta.Make, meta.Model, meta.DateTime, meta.GPSLatitude, meta.GPSLongitude)

	reqBody := messageRequest{
		Model:     c.cfg.VisionModel,
		MaxTokens: c.cfg.VisionMaxTokens,
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{
					Type: "image",
					Source: &imageSource{
						Type:      "base64",
						MediaType: mediaType,
						Data:      base64.StdEncoding.EncodeToString(image),
					},
				},
				{Type: "text", Text: prompt},
			},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &provider.Error{Provider: providerName, Reason: provider.ReasonMalformed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.VisionBaseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", &provider.Error{Provider: providerName, Reason: provider.ReasonUpstream, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.AnthropicAPIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := provider.ReasonUpstream
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			reason = provider.ReasonTimeout
		}
		c.log.WithError(err).Error("Vision request failed")
		return "", &provider.Error{Provider: providerName, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &provider.Error{Provider: providerName, Reason: provider.ReasonMalformed, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		msg := ""
		if json.Unmarshal(body, &apiErr) == nil {
			msg = apiErr.Error.Message
		}
		c.log.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"duration":    time.Since(start),
		}).Error("Vision provider returned error status")
		return "", &provider.Error{
			Provider: providerName,
			Reason:   provider.ReasonForStatus(resp.StatusCode),
			Status:   resp.StatusCode,
			Message:  msg,
		}
	}

	var msgResp messageResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", &provider.Error{Provider: providerName, Reason: provider.ReasonMalformed, Err: err}
	}

	for _, block := range msgResp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}

	return "", &provider.Error{
		Provider: providerName,
		Reason:   provider.ReasonMalformed,
		Message:  "response contained no text content",
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := t.log.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		log.WithError(err).Error("HTTP request failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration":    time.Since(start),
	}).Debug("HTTP request completed")
	return resp, nil
}
