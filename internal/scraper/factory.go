package scraper

// StrategySet holds every registered Strategy and resolves which one
// handles a given scrape input, mirroring the teacher's ScraperFactory
// (internal/infra/scraper/factory.go): a small struct that centralizes
// construction so callers don't hand-wire CanHandle checks themselves.
// Unlike the teacher's factory, which returns a name-keyed map of
// independent fetchers, strategies here have a priority order — Git and
// Registry strategies recognize a distinctive input prefix, LocalFile
// recognizes filesystem paths, and Web is the catch-all for anything else.
type StrategySet struct {
	ordered []Strategy
}

// NewStrategySet builds a StrategySet. web is required (the fallback);
// git/registry/localFile may be nil if that source kind isn't configured
// (e.g. no GitHub token available), in which case Resolve for inputs of
// that kind falls through to web.
func NewStrategySet(git *GitStrategy, registry *RegistryStrategy, localFile *LocalFileStrategy, web *WebStrategy) *StrategySet {
	var ordered []Strategy
	if git != nil {
		ordered = append(ordered, git)
	}
	if registry != nil {
		ordered = append(ordered, registry)
	}
	if localFile != nil {
		ordered = append(ordered, localFile)
	}
	ordered = append(ordered, web)
	return &StrategySet{ordered: ordered}
}

// Resolve returns the first strategy that claims input, in registration
// order (git/registry/localfile take priority over the web catch-all).
func (set *StrategySet) Resolve(input string) Strategy {
	for _, s := range set.ordered {
		if s.CanHandle(input) {
			return s
		}
	}
	return nil
}
