package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	copilotEndpoint = "https://api.githubcopilot.com/chat/completions"
	copilotModel    = "gpt-4o"
)

// CopilotClient implements Client against GitHub Copilot's OpenAI-compatible
// chat endpoint. It needs a GitHub token with an active Copilot subscription.
// The endpoint requires editor identification headers, so this speaks raw HTTP.
type CopilotClient struct {
	token string
	http  *http.Client
}

// NewCopilotClient creates a Copilot-backed client.
func NewCopilotClient(token string) (*CopilotClient, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}
	return &CopilotClient{
		token: token,
		http:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type copilotContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type copilotMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type copilotRequest struct {
	Model     string           `json:"model"`
	Messages  []copilotMessage `json:"messages"`
	MaxTokens int              `json:"max_tokens"`
}

type copilotResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateJSON generates a JSON document from a text prompt.
func (c *CopilotClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, []copilotContentPart{{Type: "text", Text: prompt}})
}

// GenerateVisionJSON sends the screenshot as a base64 data URL image part.
func (c *CopilotClient) GenerateVisionJSON(ctx context.Context, prompt string, png []byte) (string, error) {
	img := copilotContentPart{Type: "image_url"}
	img.ImageURL = &struct {
		URL string `json:"url"`
	}{URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)}

	return c.call(ctx, []copilotContentPart{img, {Type: "text", Text: prompt}})
}

// Name identifies the provider.
func (c *CopilotClient) Name() string {
	return "copilot"
}

// Close is a no-op; the client holds no persistent resources.
func (c *CopilotClient) Close() error {
	return nil
}

func (c *CopilotClient) call(ctx context.Context, content []copilotContentPart) (string, error) {
	payload, err := json.Marshal(copilotRequest{
		Model:     copilotModel,
		Messages:  []copilotMessage{{Role: "user", Content: content}},
		MaxTokens: 4096,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, copilotEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Editor-Version", "vscode/1.85.0")
	req.Header.Set("Copilot-Integration-Id", "vscode-chat")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("copilot request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read copilot response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("copilot returned status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var parsed copilotResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse copilot response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in copilot response")
	}
	return CleanJSONBlock(parsed.Choices[0].Message.Content), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
