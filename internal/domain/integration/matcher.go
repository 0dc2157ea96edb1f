package integration

import (
	"strings"

	"github.com/shopcore/backend/internal/domain/catalog"
)

// UnmappedReason explains why an option could not be matched
type UnmappedReason string

const (
	// UnmappedReasonSKUMismatch means the option carries a seller code but
	// no variant's stored SKU equals it
	UnmappedReasonSKUMismatch UnmappedReason = "sku_mismatch"
	// UnmappedReasonSKUAbsent means the option carries no seller code at all
	UnmappedReasonSKUAbsent UnmappedReason = "sku_absent"
	// UnmappedReasonNoNameMatch means the name-containment fallback also
	// found no candidate
	UnmappedReasonNoNameMatch UnmappedReason = "no_name_match"
)

// MatchResult is the outcome of matching one marketplace option against the
// variants of one internal product
type MatchResult struct {
	// Variant is the matched variant, nil when unmapped
	Variant *catalog.ProductVariant
	// Method names the matcher that produced the match
	Method string
	// Reason is set when Variant is nil
	Reason UnmappedReason
}

// Matched reports whether a variant was selected
func (r MatchResult) Matched() bool {
	return r.Variant != nil
}

// OptionMatcher matches one marketplace option to at most one internal
// variant. Matchers are pure; persistence of the resulting link is the
// caller's concern. Stricter matchers with explicit confidence or tie-break
// policies can be substituted without touching the resolver.
type OptionMatcher interface {
	Name() string
	Match(option MarketplaceOption, variants []catalog.ProductVariant) MatchResult
}

// ---------------------------------------------------------------------------
// SKUMatcher
// ---------------------------------------------------------------------------

// SKUMatcher matches by exact equality between the option's seller code and
// a variant's stored SKU. This is the natural key and always takes priority.
type SKUMatcher struct{}

// Name returns the matcher name
func (SKUMatcher) Name() string { return "sku" }

// Match selects the variant whose SKU exactly equals the option's seller code
func (m SKUMatcher) Match(option MarketplaceOption, variants []catalog.ProductVariant) MatchResult {
	if option.SellerCode == "" {
		return MatchResult{Reason: UnmappedReasonSKUAbsent}
	}
	for i := range variants {
		if variants[i].HasSKU() && variants[i].SKU == option.SellerCode {
			return MatchResult{Variant: &variants[i], Method: m.Name()}
		}
	}
	return MatchResult{Reason: UnmappedReasonSKUMismatch}
}

// ---------------------------------------------------------------------------
// NameMatcher
// ---------------------------------------------------------------------------

// NameMatcher is the fallback: the first variant whose stored label contains
// the option's first name part, case-insensitive. First match wins with no
// ranking, which is a known ambiguity risk with near-duplicate labels.
type NameMatcher struct{}

// Name returns the matcher name
func (NameMatcher) Name() string { return "name" }

// Match selects the first variant whose label contains the option's first
// name part
func (m NameMatcher) Match(option MarketplaceOption, variants []catalog.ProductVariant) MatchResult {
	if option.Name1 == "" {
		return MatchResult{Reason: UnmappedReasonNoNameMatch}
	}
	needle := strings.ToLower(option.Name1)
	for i := range variants {
		if strings.Contains(strings.ToLower(variants[i].Label), needle) {
			return MatchResult{Variant: &variants[i], Method: m.Name()}
		}
	}
	return MatchResult{Reason: UnmappedReasonNoNameMatch}
}

// ---------------------------------------------------------------------------
// ChainMatcher
// ---------------------------------------------------------------------------

// ChainMatcher runs matchers in priority order and returns the first match.
// When every matcher misses, the first matcher's reason is kept, so a SKU
// mismatch is reported as such even when the name fallback also missed.
type ChainMatcher struct {
	matchers []OptionMatcher
}

// NewChainMatcher composes matchers in priority order
func NewChainMatcher(matchers ...OptionMatcher) *ChainMatcher {
	return &ChainMatcher{matchers: matchers}
}

// DefaultMatcher returns the standard SKU-exact-then-name-containment chain
func DefaultMatcher() *ChainMatcher {
	return NewChainMatcher(SKUMatcher{}, NameMatcher{})
}

// Name returns the matcher name
func (c *ChainMatcher) Name() string { return "chain" }

// Match tries each matcher in order
func (c *ChainMatcher) Match(option MarketplaceOption, variants []catalog.ProductVariant) MatchResult {
	var first *MatchResult
	for _, m := range c.matchers {
		result := m.Match(option, variants)
		if result.Matched() {
			return result
		}
		if first == nil {
			r := result
			first = &r
		}
	}
	if first != nil {
		return *first
	}
	return MatchResult{Reason: UnmappedReasonNoNameMatch}
}
