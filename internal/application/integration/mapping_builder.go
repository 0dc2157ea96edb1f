package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shopcore/backend/internal/domain/catalog"
	"github.com/shopcore/backend/internal/domain/integration"
)

const searchPageSize = 100

// descriptionImagePattern extracts image references embedded in the remote
// description markup
var descriptionImagePattern = regexp.MustCompile(`<img[^>]+src="([^"]+)"`)

// ImageHoster re-hosts a remote image and returns its new public URL.
// Satisfied by storage.S3ImageStore.
type ImageHoster interface {
	RehostImage(ctx context.Context, sourceURL string) (string, error)
}

// MappingBuilder is the one-shot reconciliation run that links internal
// products to marketplace listings and backfills their options, images and
// descriptions. It is human-supervised and restartable: every decision is
// logged, established links are never rebound, and a report of everything
// left unmapped is written to disk at the end of the run.
type MappingBuilder struct {
	productRepo catalog.ProductRepository
	resolver    *MappingResolver
	gateway     integration.MarketplaceGateway
	images      ImageHoster
	logger      *zap.Logger
	reportDir   string
}

// NewMappingBuilder creates a mapping builder. The image hoster may be nil,
// in which case images and descriptions are left untouched.
func NewMappingBuilder(
	productRepo catalog.ProductRepository,
	resolver *MappingResolver,
	gateway integration.MarketplaceGateway,
	images ImageHoster,
	reportDir string,
	logger *zap.Logger,
) *MappingBuilder {
	return &MappingBuilder{
		productRepo: productRepo,
		resolver:    resolver,
		gateway:     gateway,
		images:      images,
		logger:      logger.Named("mapping_builder"),
		reportDir:   reportDir,
	}
}

// Run executes one full reconciliation pass
func (b *MappingBuilder) Run(ctx context.Context) (*BuilderReport, error) {
	report := &BuilderReport{
		StartedAt:        time.Now(),
		UnmappedProducts: make([]UnmappedEntry, 0),
		UnmappedOptions:  make([]UnmappedOption, 0),
	}

	candidates, err := b.productRepo.FindActiveUnlinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading unlinked products: %w", err)
	}
	report.CandidateCount = len(candidates)

	remote, err := b.fetchRemoteCatalog(ctx)
	if err != nil {
		return nil, err
	}
	report.RemoteCount = len(remote)
	b.logger.Info("Catalog loaded",
		zap.Int("unlinked_products", len(candidates)),
		zap.Int("sellable_listings", len(remote)))

	b.backfillLinks(ctx, candidates, remote, report)

	linked, err := b.productRepo.FindMarketplaceLinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading linked products: %w", err)
	}
	for i := range linked {
		if err := b.enrichProduct(ctx, &linked[i], report); err != nil {
			b.logger.Warn("Product enrichment failed",
				zap.String("product_id", linked[i].ID.String()),
				zap.Error(err))
		}
	}

	report.FinishedAt = time.Now()
	if err := b.writeReport(report); err != nil {
		b.logger.Warn("Writing run report failed", zap.Error(err))
	}
	b.logger.Info("Mapping builder run finished",
		zap.Int("linked_products", report.LinkedProducts),
		zap.Int("mapped_options", report.MappedOptions),
		zap.Int("rehosted_images", report.RehostedImages),
		zap.Int("unmapped_products", len(report.UnmappedProducts)),
		zap.Int("unmapped_options", len(report.UnmappedOptions)))
	return report, nil
}

// fetchRemoteCatalog pages the full remote catalog and keeps only sellable
// listings
func (b *MappingBuilder) fetchRemoteCatalog(ctx context.Context) ([]integration.MarketplaceProduct, error) {
	var out []integration.MarketplaceProduct
	for page := 1; ; page++ {
		result, err := b.gateway.SearchProducts(ctx, integration.SearchRequest{
			Page:       page,
			PageSize:   searchPageSize,
			OnSaleOnly: true,
		})
		if err != nil {
			return nil, fmt.Errorf("searching remote catalog page %d: %w", page, err)
		}
		for _, p := range result.Products {
			if p.IsSellable() {
				out = append(out, p)
			}
		}
		if !result.HasMore {
			break
		}
	}
	return out, nil
}

// backfillLinks matches each unlinked product against the remote catalog by
// name, exact equality first, then containment of the internal name in the
// listing name. First match wins; products with no match are reported.
func (b *MappingBuilder) backfillLinks(ctx context.Context, candidates []catalog.Product, remote []integration.MarketplaceProduct, report *BuilderReport) {
	taken := make(map[string]bool, len(remote))

	for i := range candidates {
		product := &candidates[i]
		match := matchByName(product.Name, remote, taken)
		if match == nil {
			report.UnmappedProducts = append(report.UnmappedProducts, UnmappedEntry{
				ProductID: product.ID,
				Name:      product.Name,
				Reason:    "no_name_match",
			})
			b.logger.Info("Product left unlinked",
				zap.String("product_id", product.ID.String()),
				zap.String("name", product.Name))
			continue
		}

		if err := product.LinkMarketplace(match.ProductID); err != nil {
			b.logger.Warn("Linking product failed",
				zap.String("product_id", product.ID.String()),
				zap.Error(err))
			continue
		}
		if err := b.productRepo.Save(ctx, product); err != nil {
			b.logger.Warn("Saving linked product failed",
				zap.String("product_id", product.ID.String()),
				zap.Error(err))
			continue
		}
		taken[match.ProductID] = true
		report.LinkedProducts++
		b.logger.Info("Product linked to listing",
			zap.String("product_id", product.ID.String()),
			zap.String("name", product.Name),
			zap.String("marketplace_product_id", match.ProductID),
			zap.String("listing_name", match.Name))
	}
}

// enrichProduct re-derives options, images and description for one linked
// product from its current remote listing
func (b *MappingBuilder) enrichProduct(ctx context.Context, product *catalog.Product, report *BuilderReport) error {
	remote, err := b.gateway.GetProduct(ctx, *product.MarketplaceProductID)
	if err != nil {
		return fmt.Errorf("fetching listing %s: %w", *product.MarketplaceProductID, err)
	}

	resolved, err := b.resolver.ResolveProduct(ctx, product, remote)
	if err != nil {
		return err
	}
	report.MappedOptions += resolved.Mapped
	report.UnmappedOptions = append(report.UnmappedOptions, resolved.Unmapped...)

	if b.images == nil {
		return nil
	}

	changed := false
	if len(remote.ImageURLs) > 0 {
		hosted, err := b.images.RehostImage(ctx, remote.ImageURLs[0])
		if err != nil {
			b.logger.Warn("Image re-hosting failed",
				zap.String("product_id", product.ID.String()),
				zap.String("source_url", remote.ImageURLs[0]),
				zap.Error(err))
		} else if product.ImageURL != hosted {
			product.ImageURL = hosted
			report.RehostedImages++
			changed = true
		}
	}

	description, rehosted := b.rehostDescriptionImages(ctx, remote.Description)
	report.RehostedImages += rehosted
	if description != "" && description != product.Description {
		if err := product.Update(product.Name, description); err != nil {
			return err
		}
		changed = true
	}

	if changed {
		if err := b.productRepo.Save(ctx, product); err != nil {
			return fmt.Errorf("saving enriched product: %w", err)
		}
		b.logger.Info("Product enriched from listing",
			zap.String("product_id", product.ID.String()),
			zap.Int("mapped_options", resolved.Mapped))
	}
	return nil
}

// rehostDescriptionImages rewrites every image reference embedded in the
// description markup to its re-hosted URL. A failed re-host keeps the
// original reference.
func (b *MappingBuilder) rehostDescriptionImages(ctx context.Context, description string) (string, int) {
	if description == "" {
		return "", 0
	}
	rehosted := 0
	out := description
	for _, m := range descriptionImagePattern.FindAllStringSubmatch(description, -1) {
		source := m[1]
		hosted, err := b.images.RehostImage(ctx, source)
		if err != nil {
			b.logger.Warn("Description image re-hosting failed",
				zap.String("source_url", source),
				zap.Error(err))
			continue
		}
		if hosted != source {
			out = strings.ReplaceAll(out, source, hosted)
			rehosted++
		}
	}
	return out, rehosted
}

// writeReport persists the run report for human review
func (b *MappingBuilder) writeReport(report *BuilderReport) error {
	if b.reportDir == "" {
		return nil
	}
	if err := os.MkdirAll(b.reportDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("mapping-report-%s.json", report.StartedAt.Format("20060102-150405"))
	path := filepath.Join(b.reportDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	b.logger.Info("Unmapped-items report written", zap.String("path", path))
	return nil
}

// matchByName finds the first listing matching the internal name, exact
// case-insensitive equality first, then containment
func matchByName(name string, remote []integration.MarketplaceProduct, taken map[string]bool) *integration.MarketplaceProduct {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	for i := range remote {
		if taken[remote[i].ProductID] {
			continue
		}
		if strings.ToLower(strings.TrimSpace(remote[i].Name)) == needle {
			return &remote[i]
		}
	}
	for i := range remote {
		if taken[remote[i].ProductID] {
			continue
		}
		if strings.Contains(strings.ToLower(remote[i].Name), needle) {
			return &remote[i]
		}
	}
	return nil
}
