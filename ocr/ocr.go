// Package ocr extracts option positions from brokerage screenshots with a
// vision-capable chat completion model.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/rustyeddy/marginpilot/httpretry"
	"github.com/rustyeddy/marginpilot/portfolio"
)

const (
	OpenAIURL    = "https://api.openai.com"
	DefaultModel = "gpt-4o-mini"
	maxTokens    = 2000
)

var (
	ErrNoAPIKey    = errors.New("ocr: OPENAI_API_KEY not configured")
	ErrNoImage     = errors.New("ocr: no image provided")
	ErrUnparseable = errors.New("ocr: could not parse model response")
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// Retry overrides the default retry backoff; its Timeout is ignored.
	Retry httpretry.Options
}

// Extractor calls an OpenAI-compatible chat completions endpoint.
type Extractor struct {
	cfg   Config
	retry *httpretry.Client
	log   *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Extractor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenAIURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	retry := cfg.Retry
	if retry == (httpretry.Options{}) {
		retry = httpretry.Options{MaxRetries: 2, MinBackoff: 500 * time.Millisecond, MaxBackoff: 4 * time.Second}
	}
	retry.Timeout = cfg.Timeout

	return &Extractor{
		cfg:   cfg,
		retry: httpretry.New(retry),
		log:   log,
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract sends the image (a data URL or a fetchable URL) to the model and
// returns the positions it found. Delta is left unset.
func (e *Extractor) Extract(ctx context.Context, image string) ([]portfolio.OptionPosition, error) {
	if e.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if strings.TrimSpace(image) == "" {
		return nil, ErrNoImage
	}

	payload, err := json.Marshal(chatRequest{
		Model: e.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: extractionPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: image, Detail: "high"}},
			},
		}},
		MaxTokens:   maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}

	resp, err := e.retry.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ocr: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ocr: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ocr: api error (status %d): %s", resp.StatusCode, string(body))
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("ocr: decode response: %w", err)
	}

	content := "[]"
	if len(cr.Choices) > 0 && cr.Choices[0].Message.Content != "" {
		content = cr.Choices[0].Message.Content
	}

	positions, err := ParsePositions(content)
	if err != nil {
		e.log.Warn("unparseable extraction", zap.String("raw", content))
		return nil, err
	}
	e.log.Debug("extracted positions", zap.Int("count", len(positions)))
	return positions, nil
}

// DataURL encodes raw image bytes as a base64 data URL, sniffing the
// content type.
func DataURL(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNoImage
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("ocr: not an image (%s)", mt.String())
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DataURLFromFile reads an image file and encodes it with DataURL.
func DataURLFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return DataURL(data)
}
