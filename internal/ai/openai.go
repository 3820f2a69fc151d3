package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"habbit_backend/internal/logger"
)

// OpenAIProvider calls the OpenAI chat-completions API over plain HTTP.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIProvider{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

var languageNames = map[string]string{
	"pt": "português",
	"en": "inglês",
	"es": "espanhol",
}

var styleInstructions = map[string]string{
	"correct":  "Corrija o seguinte texto, focando em gramática, ortografia, pontuação e coerência.",
	"formal":   "Corrija o texto e deixe-o muito formal e profissional, adequado para contextos corporativos ou acadêmicos.",
	"informal": "Corrija o texto e deixe-o mais informal e descontraído, como uma conversa entre amigos.",
	"concise":  "Corrija o texto e torne-o mais conciso e direto ao ponto, removendo redundâncias.",
	"detailed": "Corrija o texto e torne-o mais detalhado e explicativo, adicionando contexto.",
}

func buildPrompt(text, language, style string) string {
	languageName, ok := languageNames[language]
	if !ok {
		languageName = languageNames["pt"]
	}

	instruction, ok := styleInstructions[style]
	if !ok {
		instruction = styleInstructions["correct"]
	}

	return fmt.Sprintf(`Você é um assistente especializado em correção de texto em %s.

%s

Texto original:
%s

IMPORTANTE: Retorne APENAS o texto corrigido/ajustado, sem nenhuma explicação adicional, introdução ou conclusão.`,
		languageName, instruction, text)
}

const systemPrompt = "Você é um corretor de texto especializado. Retorne apenas o texto corrigido, sem explicações."

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream,omitempty"`
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
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *OpenAIProvider) CorrectText(ctx context.Context, text, language, style string) (*CorrectionResult, error) {
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(text, language, style)},
		},
		Temperature: 0.1,
		MaxTokens:   1000,
	}

	resp, err := p.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openai: unexpected status %d: %s", resp.StatusCode, string(data))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}

	correctedText := text
	if len(parsed.Choices) > 0 {
		if content := strings.TrimSpace(parsed.Choices[0].Message.Content); content != "" {
			correctedText = content
		}
	}

	return &CorrectionResult{
		CorrectedText: correctedText,
		TokensUsed:    parsed.Usage.TotalTokens,
	}, nil
}

func (p *OpenAIProvider) CorrectTextStream(ctx context.Context, text, language, style string) (<-chan StreamChunk, error) {
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(text, language, style)},
		},
		Temperature: 0.1,
		MaxTokens:   1000,
		Stream:      true,
	}

	resp, err := p.post(ctx, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("openai: unexpected status %d: %s", resp.StatusCode, string(data))
	}

	out := make(chan StreamChunk)

	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				return
			}

			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				logger.Warn("openai: skipping malformed stream chunk", "error", err)
				continue
			}

			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case out <- StreamChunk{Content: chunk.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			select {
			case out <- StreamChunk{Err: fmt.Errorf("openai: stream read: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

func (p *OpenAIProvider) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	return resp, nil
}
