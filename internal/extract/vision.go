package extract

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// VisionEngine describes an image with a vision model. Engines are injected
// into the image extractor; a nil engine disables the analysis pass.
type VisionEngine interface {
	Provider() string
	Model() string
	// Analyze returns a free-text description of the image bytes.
	Analyze(image []byte, mimeType string) (string, error)
}

// VisionAnalysis is the recorded outcome of one analysis pass. A provider
// failure is captured here rather than failing the conversion, so OCR and
// base64 output survive a flaky or unconfigured model.
type VisionAnalysis struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Analysis string `json:"analysis,omitempty"`
	Err      string `json:"error,omitempty"`
}

// Succeeded reports whether the provider returned a usable description.
func (v *VisionAnalysis) Succeeded() bool {
	return v != nil && v.Err == "" && v.Analysis != ""
}

// defaultVisionPrompt asks for a structured, reproduction-grade description.
const defaultVisionPrompt = `You are an expert image analyst. Provide an extremely detailed, structured description of this image that would allow near-identical reproduction: overall composition and layout, every object with its position and size, all visible text verbatim, the color palette, lighting, and style. Be precise and thorough.`

// OpenAIVision talks to an OpenAI-compatible chat completions endpoint with
// the image attached as a data URI.
type OpenAIVision struct {
	Endpoint  string
	APIKey    string
	ModelName string
	Prompt    string
	Client    *http.Client
}

// NewOpenAIVision builds an engine for an OpenAI-compatible endpoint. An
// empty endpoint or model selects the OpenAI defaults.
func NewOpenAIVision(endpoint, apiKey, model string) *OpenAIVision {
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIVision{
		Endpoint:  endpoint,
		APIKey:    apiKey,
		ModelName: model,
		Client:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *OpenAIVision) Provider() string { return "openai" }

func (o *OpenAIVision) Model() string { return o.ModelName }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string     `json:"role"`
	Content []chatPart `json:"content"`
}

type chatPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (o *OpenAIVision) Analyze(image []byte, mimeType string) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("no api key configured")
	}

	prompt := o.Prompt
	if prompt == "" {
		prompt = defaultVisionPrompt
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	body, err := json.Marshal(chatRequest{
		Model: o.ModelName,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &chatImageURL{URL: dataURI, Detail: "high"}},
			},
		}},
		MaxTokens:   4096,
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, o.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read vision response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("parse vision response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("vision provider: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision provider: status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("vision provider: empty response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
