package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Vision service error constants
var (
	ErrVisionUnavailable = errors.New("vision service unavailable")
	ErrVisionEmptyReply  = errors.New("vision service returned empty reply")
)

// VisionService analyzes bill images and text through a vision-capable chat model
type VisionService interface {
	AnalyzeImage(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error)
	AnalyzeText(ctx context.Context, prompt string, text string) (string, error)
}

// VisionClient talks to an OpenAI-compatible chat completions endpoint
type VisionClient struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewVisionClient creates a vision client against an OpenAI-compatible API
func NewVisionClient(baseURL, apiKey, model string, timeout time.Duration) *VisionClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VisionClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

func (c *VisionClient) Name() string { return "vision" }

// Chat completions request/response shapes
// Docs: https://platform.openai.com/docs/api-reference/chat

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionReq struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatCompletionResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// AnalyzeImage sends the prompt plus an inline base64 image and returns the model reply
func (c *VisionClient) AnalyzeImage(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))

	body := chatCompletionReq{
		Model: c.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL}},
				},
			},
		},
		MaxTokens: 1024,
	}

	return c.complete(ctx, body)
}

// AnalyzeText sends the prompt plus pre-extracted document text and returns the model reply
func (c *VisionClient) AnalyzeText(ctx context.Context, prompt string, text string) (string, error) {
	body := chatCompletionReq{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt + "\n\n" + text},
		},
		MaxTokens: 1024,
	}

	return c.complete(ctx, body)
}

func (c *VisionClient) complete(ctx context.Context, body chatCompletionReq) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := c.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVisionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", ErrVisionUnavailable, resp.StatusCode, string(b))
	}

	var out chatCompletionResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrVisionUnavailable, out.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrVisionEmptyReply
	}

	return out.Choices[0].Message.Content, nil
}

// MockVisionService returns canned replies for development and tests
type MockVisionService struct {
	ImageReply string
	TextReply  string
	Err        error
}

// NewMockVisionService creates a mock vision service
func NewMockVisionService(imageReply, textReply string) *MockVisionService {
	return &MockVisionService{ImageReply: imageReply, TextReply: textReply}
}

func (m *MockVisionService) AnalyzeImage(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.ImageReply, nil
}

func (m *MockVisionService) AnalyzeText(ctx context.Context, prompt string, text string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.TextReply, nil
}
