package embed

// knownModelDimensions records the native output width of the embedding
// models this store has been exercised against, so NativeDimensionFor can
// validate cfg.Dimension at startup (spec.md §3: "models with d > D are
// rejected at startup") without making a network call to find out.
var knownModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// NativeDimensionFor returns the known native embedding width for the given
// provider/model pair, or ok=false if the pair is unrecognized (a model this
// store has no record for is allowed through — it's padded or truncated to
// the configured dimension same as any known model producing d <= D).
func NativeDimensionFor(provider, model string) (dim int, ok bool) {
	if provider != "openai" {
		return 0, false
	}
	dim, ok = knownModelDimensions[model]
	return dim, ok
}
