package embed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"docsindexer/internal/apperrors"
)

// Anthropic selects the Claude provider for vector search. Anthropic has no
// public embeddings endpoint as of this writing, so Embed always reports
// EmbedKindProviderUnavailable — the same fallback path as an unreachable
// provider — degrading to FTS-only search rather than refusing to start.
// The client is still constructed and held here (not just dropped) so the
// provider-selection wiring is symmetric with OpenAI's, ready for an
// embeddings endpoint or a rerank-style use should one arrive.
type Anthropic struct {
	client    anthropic.Client
	dimension int
}

// NewAnthropic builds the Claude provider selection. See the Embed doc
// comment: vector generation is unavailable for this provider today.
func NewAnthropic(apiKey string, dimension int) *Anthropic {
	slog.Warn("anthropic embedding provider configured, but Anthropic has no public embeddings endpoint; falling back to FTS-only search")
	return &Anthropic{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		dimension: dimension,
	}
}

func (a *Anthropic) Dimension() int  { return a.dimension }
func (a *Anthropic) Available() bool { return false }

func (a *Anthropic) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return nil, apperrors.NewEmbedError(apperrors.EmbedKindProviderUnavailable, "anthropic",
		fmt.Errorf("anthropic has no public embeddings endpoint"))
}
