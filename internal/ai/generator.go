package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Generated is one question/answer pair produced by the model
type Generated struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Client represents a client for an OpenAI-compatible chat completions API
type Client struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// New creates a new generation client
func New(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is not set")
	}
	return &Client{
		apiKey:      apiKey,
		apiURL:      "https://api.openai.com/v1/chat/completions",
		model:       "gpt-3.5-turbo",
		maxTokens:   2048,
		temperature: 0.7,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}, nil
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

// complete sends one chat request and returns the first choice's text
func (c *Client) complete(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	request := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// GenerateCards produces question/answer pairs from free text
func (c *Client) GenerateCards(ctx context.Context, text string, count int) ([]Generated, error) {
	prompt := fmt.Sprintf(
		"Given the following text, generate %d flashcards in a question-answer format. "+
			"Make the questions clear and concise, and ensure the answers are accurate based on the content. "+
			"Format the output as a JSON array of objects with \"question\" and \"answer\" keys and nothing else.\n\nText: %s",
		count, text,
	)

	content, err := c.complete(ctx,
		"You are a helpful assistant that creates educational flashcards.",
		prompt, c.temperature)
	if err != nil {
		return nil, err
	}

	cards, err := parseCardArray(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated flashcards: %v", err)
	}
	return cards, nil
}

// ImproveCard rewrites a card to be more precise without changing its
// educational content
func (c *Client) ImproveCard(ctx context.Context, question, answer string) (Generated, error) {
	prompt := fmt.Sprintf(
		"Improve this flashcard while maintaining its educational value:\n"+
			"Question: %s\nAnswer: %s\n\n"+
			"Make the question more precise and the answer more comprehensive yet concise.\n"+
			"Return the improved version in this format:\nQuestion: [improved question]\nAnswer: [improved answer]",
		question, answer,
	)

	content, err := c.complete(ctx,
		"You are an expert in educational content improvement.",
		prompt, c.temperature)
	if err != nil {
		return Generated{}, err
	}
	return parseCardLines(content, question, answer), nil
}

// TranslateCard translates a card to the target language
func (c *Client) TranslateCard(ctx context.Context, question, answer, targetLanguage string) (Generated, error) {
	prompt := fmt.Sprintf(
		"Translate this flashcard to %s:\nQuestion: %s\nAnswer: %s\n\n"+
			"Ensure the translation maintains the educational value and context.\n"+
			"Return the translated version in this format:\nQuestion: [translated question]\nAnswer: [translated answer]",
		targetLanguage, question, answer,
	)

	// Lower temperature for more faithful translations
	content, err := c.complete(ctx,
		fmt.Sprintf("You are an expert translator to %s.", targetLanguage),
		prompt, 0.3)
	if err != nil {
		return Generated{}, err
	}
	return parseCardLines(content, question, answer), nil
}

// parseCardArray extracts a JSON array of cards from model output,
// tolerating surrounding prose or code fences
func parseCardArray(content string) ([]Generated, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var cards []Generated
	if err := json.Unmarshal([]byte(content[start:end+1]), &cards); err != nil {
		return nil, err
	}

	filtered := cards[:0]
	for _, card := range cards {
		if strings.TrimSpace(card.Question) == "" || strings.TrimSpace(card.Answer) == "" {
			continue
		}
		filtered = append(filtered, card)
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("response contained no usable cards")
	}
	return filtered, nil
}

// parseCardLines reads the "Question: ... / Answer: ..." format,
// falling back to the original card when the response is malformed
func parseCardLines(content, fallbackQuestion, fallbackAnswer string) Generated {
	card := Generated{Question: fallbackQuestion, Answer: fallbackAnswer}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if q, ok := strings.CutPrefix(line, "Question:"); ok {
			if q = strings.TrimSpace(q); q != "" {
				card.Question = q
			}
		} else if a, ok := strings.CutPrefix(line, "Answer:"); ok {
			if a = strings.TrimSpace(a); a != "" {
				card.Answer = a
			}
		}
	}
	return card
}
