package embed

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"docsindexer/internal/apperrors"
)

func TestOpenAI_ConstructionReportsAvailableAndDimension(t *testing.T) {
	o := NewOpenAI("sk-test", "text-embedding-3-small", 1536)
	if !o.Available() {
		t.Fatal("OpenAI embedder should report Available() == true")
	}
	if o.Dimension() != 1536 {
		t.Fatalf("Dimension() = %d, want 1536", o.Dimension())
	}
}

func TestOpenAI_EmbedEmptyInputIsNoop(t *testing.T) {
	o := NewOpenAI("sk-test", "text-embedding-3-small", 1536)
	vectors, err := o.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vectors != nil {
		t.Fatalf("expected nil vectors for empty input, got %v", vectors)
	}
}

func TestClassifyOpenAIErr(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantKind   apperrors.EmbedKind
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, apperrors.EmbedKindRateLimited},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, apperrors.EmbedKindInvalidInput},
		{"payload too large", &openai.APIError{HTTPStatusCode: 413}, apperrors.EmbedKindInvalidInput},
		{"server error falls back to unavailable", &openai.APIError{HTTPStatusCode: 500}, apperrors.EmbedKindProviderUnavailable},
		{"non-api error", errors.New("dial tcp: timeout"), apperrors.EmbedKindProviderUnavailable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			classified := classifyOpenAIErr(c.err)
			var embedErr *apperrors.EmbedError
			if !errors.As(classified, &embedErr) {
				t.Fatalf("classifyOpenAIErr did not return an *apperrors.EmbedError: %v", classified)
			}
			if embedErr.Kind() != c.wantKind {
				t.Fatalf("Kind() = %v, want %v", embedErr.Kind(), c.wantKind)
			}
			if embedErr.Provider != "openai" {
				t.Fatalf("Provider = %q, want openai", embedErr.Provider)
			}
		})
	}
}
