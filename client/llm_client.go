package client

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/haycash/toolbox/config"
)

// LLMClient wraps the OpenAI API for the two calls the SAT activity
// matcher makes: embedding lookups and the candidate chooser.
type LLMClient struct {
	client         *openai.Client
	embeddingModel string
	chatModel      string
	timeout        time.Duration
}

// NewLLMClient creates an OpenAI-backed client.
func NewLLMClient(cfg config.OpenAIConfig) (*LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &LLMClient{
		client:         openai.NewClient(cfg.APIKey),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		timeout:        cfg.Timeout,
	}, nil
}

// Embeddings returns one vector per input text, in input order.
func (c *LLMClient) Embeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

var firstIntRegex = regexp.MustCompile(`-?\d+`)

// ChooseBestActivity asks the chat model to pick the SAT activity that
// best matches a free-form industry description. It returns an index in
// 1..len(options), or 0 when the model says none fits.
func (c *LLMClient) ChooseBestActivity(ctx context.Context, industry string, options []string) (int, error) {
	if industry == "" || len(options) == 0 {
		return 0, fmt.Errorf("nothing to choose from")
	}

	var sb strings.Builder
	for i, opt := range options {
		fmt.Fprintf(&sb, "%d) %s\n", i+1, opt)
	}

	userContent := fmt.Sprintf(
		"Descripción libre de la actividad del contribuyente:\n%s\n\n"+
			"Opciones de actividades económicas SAT:\n%s\n\n"+
			"Instrucciones:\n"+
			"- Elige la opción que sea CONCEPTUALMENTE más parecida a la descripción del contribuyente.\n"+
			"- Considera el tipo de actividad (servicios, comercio, manufactura, etc.), el tipo de cliente y el contexto.\n"+
			"- Si ninguna opción describe razonablemente la actividad, elige 0.\n\n"+
			"Responde ÚNICAMENTE con un número entero entre 0 y %d (0 si ninguna coincide). "+
			"No expliques nada, solo el número.",
		industry, strings.TrimRight(sb.String(), "\n"), len(options))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Eres un asistente experto en actividades económicas del SAT. Solo respondes con un número entero.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userContent,
			},
		},
		// The encoder drops a plain 0, so send the smallest value to
		// keep the call deterministic.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return 0, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("no response from OpenAI")
	}

	m := firstIntRegex.FindString(resp.Choices[0].Message.Content)
	if m == "" {
		return 0, fmt.Errorf("no index in response %q", resp.Choices[0].Message.Content)
	}
	idx, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("bad index %q: %w", m, err)
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(options) {
		idx = len(options)
	}
	return idx, nil
}
