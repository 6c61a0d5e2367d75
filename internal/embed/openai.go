package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/resilience/circuitbreaker"
	"docsindexer/internal/resilience/retry"
)

// OpenAI embeds chunk text via OpenAI's embeddings API, wrapped the same way
// the teacher wraps its summarizer's chat-completion call: a per-provider
// circuit breaker around a bounded retry loop (internal/infra/summarizer/openai.go).
type OpenAI struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int

	breaker     *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

// NewOpenAI builds an OpenAI embedder. apiKey must be non-empty; callers
// check it before constructing (see ForConfig).
func NewOpenAI(apiKey, model string, dimension int) *OpenAI {
	slog.Info("initialized openai embedder", slog.String("model", model), slog.Int("dimension", dimension))
	return &OpenAI{
		client:      openai.NewClient(apiKey),
		model:       openai.EmbeddingModel(model),
		dimension:   dimension,
		breaker:     circuitbreaker.New(circuitbreaker.EmbeddingProviderConfig("openai")),
		retryConfig: retry.EmbeddingAPIConfig(),
	}
}

func (o *OpenAI) Dimension() int  { return o.dimension }
func (o *OpenAI) Available() bool { return true }

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var vectors [][]float32
	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.breaker.Execute(func() (interface{}, error) {
			return o.doEmbed(ctx, texts)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return apperrors.NewEmbedError(apperrors.EmbedKindProviderUnavailable, "openai",
					fmt.Errorf("circuit breaker open"))
			}
			return err
		}
		vectors = cbResult.([][]float32)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return vectors, nil
}

func (o *OpenAI) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: o.model,
	})
	if err != nil {
		return nil, classifyOpenAIErr(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, apperrors.NewEmbedError(apperrors.EmbedKindInvalidInput, "openai",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		out[d.Index] = Pad(d.Embedding, o.dimension)
	}
	return out, nil
}

func classifyOpenAIErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return apperrors.NewEmbedError(apperrors.EmbedKindRateLimited, "openai", err)
		case 400, 413:
			return apperrors.NewEmbedError(apperrors.EmbedKindInvalidInput, "openai", err)
		}
	}
	return apperrors.NewEmbedError(apperrors.EmbedKindProviderUnavailable, "openai", err)
}
