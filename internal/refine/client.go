// Package refine polishes generated reports through an OpenAI-compatible
// chat-completions service.
package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultEndpoint = "https://api.openai.com"
	defaultModel    = "gpt-4o-mini"

	maxTokens   = 2000
	temperature = 0.3

	systemPrompt = "Você é um assistente especializado em correção gramatical, coesão e coerência de " +
		"textos oficiais da Polícia Militar. Corrija apenas erros gramaticais, melhore a coesão e " +
		"coerência do texto, mantendo o formato original e o tom formal. Não altere informações " +
		"factuais ou dados específicos."

	userPrompt = "Por favor, corrija este relatório policial mantendo todas as informações originais, " +
		"apenas melhorando a gramática, coesão e coerência:\n\n"
)

// Client calls the chat-completions API to grammar-polish report text.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string

	// Overridable base URL for testing.
	endpoint string
}

// NewClient creates a refinement client. Empty model and endpoint fall back
// to the defaults; the API key is required.
func NewClient(apiKey, model, endpoint string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if model == "" {
		model = defaultModel
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		model:      model,
		endpoint:   endpoint,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Refine sends the report for conservative grammar/cohesion edits and
// returns the polished text. On any failure it returns the original report
// unchanged along with the error, so callers can show a notice and carry on
// with the unrefined text.
func (c *Client) Refine(ctx context.Context, report string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt + report},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return report, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(c.endpoint, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return report, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return report, fmt.Errorf("refinement request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return report, fmt.Errorf("reading response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return report, fmt.Errorf("parsing response: %w", err)
	}

	if chatResp.Error != nil {
		return report, fmt.Errorf("API error (%s): %s", chatResp.Error.Type, chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return report, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if len(chatResp.Choices) == 0 {
		return report, fmt.Errorf("empty response from API")
	}

	refined := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if refined == "" {
		return report, fmt.Errorf("blank completion from API")
	}
	return refined, nil
}
