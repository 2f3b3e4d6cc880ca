package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/model"
	jsoniter "github.com/json-iterator/go"
)

// Client turns a scraped text blob into a structured wedding record.
type Client interface {
	Extract(ctx context.Context, fullText string) (*model.WeddingRecord, error)
}

// HTTPClient calls a messages-style completion API and asks the model to
// emit the wedding schema as JSON. One attempt per call; the caller decides
// whether a degraded record is acceptable.
type HTTPClient struct {
	cfg    *config.ExtractorConfig
	client *http.Client
	log    *slog.Logger
}

func NewHTTPClient(cfg *config.ExtractorConfig, httpClient *http.Client, log *slog.Logger) *HTTPClient {
	return &HTTPClient{cfg: cfg, client: httpClient, log: log}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

const extractionPrompt = `You are extracting structured information from a wedding website.
Return ONLY a JSON object with these fields (use empty string, empty list, or null when unknown):
{
  "partner1_name": "", "partner2_name": "",
  "wedding_date": "YYYY-MM-DD", "wedding_time": "",
  "dress_code": "",
  "ceremony_venue_name": "", "ceremony_venue_address": "",
  "reception_venue_name": "", "reception_venue_address": "", "reception_time": "",
  "registry_urls": {"store name": "url"},
  "rsvp_url": "",
  "additional_notes": "",
  "events": [{"event_name": "", "event_date": "", "event_time": "", "venue_name": "", "venue_address": "", "description": "", "dress_code": ""}],
  "accommodations": [{"hotel_name": "", "address": "", "phone": "", "booking_url": "", "has_room_block": false, "room_block_name": "", "room_block_code": "", "room_block_rate": "", "room_block_deadline": "", "notes": ""}],
  "faqs": [{"question": "", "answer": "", "category": ""}]
}
Include every hotel mentioned in the accommodations section.
Website content:
`

func (c *HTTPClient) Extract(ctx context.Context, fullText string) (*model.WeddingRecord, error) {
	if c.cfg.MaxInputChars > 0 && len(fullText) > c.cfg.MaxInputChars {
		fullText = fullText[:c.cfg.MaxInputChars]
	}

	reqBody, err := jsoniter.Marshal(messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages:  []message{{Role: "user", Content: extractionPrompt + fullText}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal extraction request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseUrl, "/")+"/v1/messages", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.ApiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read extraction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction api returned %d: %s", resp.StatusCode, truncateErr(body))
	}

	var parsed messagesResponse
	if err := jsoniter.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("extraction api error %s: %s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("extraction response has no content blocks")
	}

	return ParseRecord(parsed.Content[0].Text)
}

// ParseRecord salvages a WeddingRecord from model output. Code fences and
// surrounding prose are tolerated; the first {...} span is what gets parsed.
func ParseRecord(text string) (*model.WeddingRecord, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	raw := jsonObjectRe.FindString(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in extraction output")
	}

	var record model.WeddingRecord
	if err := jsoniter.UnmarshalFromString(raw, &record); err != nil {
		return nil, fmt.Errorf("parse extraction output: %w", err)
	}
	return &record, nil
}

func truncateErr(body []byte) string {
	if len(body) > 300 {
		body = body[:300]
	}
	return string(body)
}
