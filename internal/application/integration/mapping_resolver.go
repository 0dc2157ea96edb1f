package integration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shopcore/backend/internal/domain/catalog"
	"github.com/shopcore/backend/internal/domain/integration"
)

// MappingResolver binds the options of one remote listing to the variants of
// one internal product. Matching policy lives in the OptionMatcher; the
// resolver only persists the links it produces and reports the rest.
type MappingResolver struct {
	variantRepo catalog.VariantRepository
	matcher     integration.OptionMatcher
	logger      *zap.Logger
}

// NewMappingResolver creates a resolver with the given matcher. Pass
// integration.DefaultMatcher() for the standard SKU-then-name chain.
func NewMappingResolver(variantRepo catalog.VariantRepository, matcher integration.OptionMatcher, logger *zap.Logger) *MappingResolver {
	return &MappingResolver{
		variantRepo: variantRepo,
		matcher:     matcher,
		logger:      logger.Named("mapping_resolver"),
	}
}

// ResolveProduct matches the remote listing's options against the product's
// variants and persists every new link. Options are consumed greedily:
// a variant already linked, or linked earlier in the same pass, is not
// offered to later options.
func (r *MappingResolver) ResolveProduct(ctx context.Context, product *catalog.Product, remote *integration.MarketplaceProduct) (*ResolveResult, error) {
	variants, err := r.variantRepo.FindByProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("loading variants for product %s: %w", product.ID, err)
	}

	result := &ResolveResult{
		ProductID: product.ID,
		Unmapped:  make([]UnmappedOption, 0),
	}

	for _, opt := range remote.Options {
		if r.optionAlreadyLinked(variants, opt) {
			continue
		}

		candidates := unlinkedVariants(variants)
		match := r.matcher.Match(opt, candidates)
		if !match.Matched() {
			result.Unmapped = append(result.Unmapped, UnmappedOption{
				OptionID:   opt.OptionID,
				Name:       opt.DisplayName(),
				SellerCode: opt.SellerCode,
				Reason:     match.Reason,
			})
			r.logger.Info("Option left unmapped",
				zap.String("product_id", product.ID.String()),
				zap.String("option_id", opt.OptionID),
				zap.String("option_name", opt.DisplayName()),
				zap.String("reason", string(match.Reason)))
			continue
		}

		variant := match.Variant
		if err := variant.LinkMarketplaceOption(opt.OptionID, opt.ChannelProductID); err != nil {
			return nil, fmt.Errorf("linking variant %s: %w", variant.ID, err)
		}
		if err := r.variantRepo.Save(ctx, variant); err != nil {
			return nil, fmt.Errorf("saving variant %s: %w", variant.ID, err)
		}
		// the matcher saw a copy; mark the loaded row too so the variant is
		// not offered to a later option in this pass
		for i := range variants {
			if variants[i].ID == variant.ID {
				variants[i] = *variant
				break
			}
		}
		result.Mapped++
		r.logger.Info("Option mapped to variant",
			zap.String("product_id", product.ID.String()),
			zap.String("variant_id", variant.ID.String()),
			zap.String("variant_label", variant.Label),
			zap.String("option_id", opt.OptionID),
			zap.String("method", match.Method))
	}

	return result, nil
}

// optionAlreadyLinked reports whether some variant already carries this
// option id, so a re-run does not rebind established links
func (r *MappingResolver) optionAlreadyLinked(variants []catalog.ProductVariant, opt integration.MarketplaceOption) bool {
	for i := range variants {
		if variants[i].MarketplaceOptionID != nil && *variants[i].MarketplaceOptionID == opt.OptionID {
			return true
		}
	}
	return false
}

func unlinkedVariants(variants []catalog.ProductVariant) []catalog.ProductVariant {
	out := make([]catalog.ProductVariant, 0, len(variants))
	for i := range variants {
		if !variants[i].IsExternallyAddressable() {
			out = append(out, variants[i])
		}
	}
	return out
}
