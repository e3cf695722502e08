package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/studybot/internal/config"
)

// OpenAI is a client for the OpenAI chat completions API
type OpenAI struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

// NewOpenAI creates a new OpenAI client
func NewOpenAI(cfg config.OpenAIConfig) *OpenAI {
	return &OpenAI{
		apiKey: cfg.APIKey,
		apiURL: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		model:  cfg.Model,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Message represents a message in the chat conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat completions API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the chat completions API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a system and user prompt and returns the trimmed reply
func (c *OpenAI) Complete(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error) {
	request := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

var motivationPrompts = map[string]struct{ system, user string }{
	"en": {
		system: "You are a motivational speaker focused on Porsche cars. Generate short, powerful motivational messages in English that connect daily work and success to owning a Porsche 911 GT3 RS. Keep messages under 200 characters and make them personal and impactful.",
		user:   "Generate a motivational message in English about working hard today to achieve the dream of owning a Porsche 911 GT3 RS.",
	},
	"nl": {
		system: "Je bent een motiverende spreker gericht op Porsche-auto's. Genereer korte, krachtige motiverende berichten in het Nederlands die dagelijks werk en succes verbinden met het bezitten van een Porsche 911 GT3 RS. Houd berichten onder 200 tekens en maak ze persoonlijk en impactvol.",
		user:   "Genereer een motiverende boodschap in het Nederlands over hard werken vandaag om de droom van het bezitten van een Porsche 911 GT3 RS te bereiken.",
	},
	"uk": {
		system: "Ви мотиваційний спікер, зосереджений на автомобілях Porsche. Створюйте короткі, потужні мотиваційні повідомлення українською мовою, які пов'язують щоденну роботу та успіх з володінням Porsche 911 GT3 RS. Зберігайте повідомлення до 200 символів і робіть їх особистими та ефектними.",
		user:   "Згенеруйте мотиваційне повідомлення українською мовою про важливість наполегливої роботи сьогодні для досягнення мрії про володіння Porsche 911 GT3 RS.",
	},
}

// GenerateMotivation writes a short motivational message in the given language
func (c *OpenAI) GenerateMotivation(ctx context.Context, lang string) (string, error) {
	p, ok := motivationPrompts[lang]
	if !ok {
		return "", fmt.Errorf("unsupported language %q", lang)
	}
	msg, err := c.Complete(ctx, p.system, p.user, 150, 0.8)
	if err != nil {
		return "", fmt.Errorf("failed to generate motivation message: %w", err)
	}
	if msg == "" {
		return "", fmt.Errorf("empty motivation message")
	}
	return msg, nil
}
