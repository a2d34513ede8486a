package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	ideasName       = "llm_ideas"
	ideasMaxResults = 10
)

// TextGenerator produces a completion for a prompt.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Ideas asks a language model for related book keywords. Generators are tried
// in order; the first one that answers with a parseable JSON array wins.
type Ideas struct {
	generators []TextGenerator
	logger     *zap.Logger
}

func NewIdeas(logger *zap.Logger, generators ...TextGenerator) *Ideas {
	active := make([]TextGenerator, 0, len(generators))
	for _, g := range generators {
		if g != nil {
			active = append(active, g)
		}
	}
	return &Ideas{generators: active, logger: logger}
}

func (i *Ideas) Name() string { return ideasName }

func (i *Ideas) Kind() Kind { return KindIdeas }

func ideasPrompt(seed string) string {
	return fmt.Sprintf(`You help self-publishing authors research book keywords.
List up to %d search phrases a reader might type into a book store search box when looking for books about "%s".
Respond with a JSON array of lowercase strings only.`, ideasMaxResults, seed)
}

func (i *Ideas) Suggest(ctx context.Context, seed string) ([]string, error) {
	if len(i.generators) == 0 {
		return nil, errors.NewSourceUnavailable(i.Name(), "suggest", seed, fmt.Errorf("no language model configured"))
	}

	prompt := ideasPrompt(seed)
	var lastErr error
	for idx, gen := range i.generators {
		text, err := gen.Generate(ctx, prompt)
		if err == nil {
			var ideas []string
			ideas, err = parseIdeas(text)
			if err == nil {
				if idx > 0 {
					i.logger.Info("Keyword ideas served by fallback model", zap.String("provider", gen.Name()))
				}
				return ideas, nil
			}
		}
		lastErr = err
		i.logger.Warn("Keyword ideas generation failed",
			zap.String("provider", gen.Name()),
			zap.String("keyword", seed),
			zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.NewSourceUnavailable(i.Name(), "suggest", seed, lastErr)
}

// parseIdeas accepts a bare JSON array, optionally wrapped in a code fence or
// surrounded by prose.
func parseIdeas(text string) ([]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("model response has no JSON array")
	}

	var raw []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}

	ideas := make([]string, 0, len(raw))
	for _, idea := range raw {
		if idea = strings.TrimSpace(idea); idea != "" {
			ideas = append(ideas, idea)
		}
		if len(ideas) == ideasMaxResults {
			break
		}
	}
	return ideas, nil
}

// GeminiGenerator is the primary model provider.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiGenerator{client: client, model: model, logger: logger}, nil
}

func (g *GeminiGenerator) Name() string { return "Gemini" }

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.4)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  512,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}, config)
	if err != nil {
		return "", err
	}

	text := geminiText(resp)
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	g.logger.Debug("Gemini response received", zap.Int("length", len(text)))
	return text, nil
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var texts []string
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "")
}

// OpenAIGenerator is the fallback model provider.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, model string, opts ...option.RequestOption) *OpenAIGenerator {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = "gpt-4.1-mini"
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIGenerator{client: &client, model: model}
}

func (o *OpenAIGenerator) Name() string { return "OpenAI" }

func (o *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You must respond with a valid JSON array only."),
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(512),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	return resp.Choices[0].Message.Content, nil
}
