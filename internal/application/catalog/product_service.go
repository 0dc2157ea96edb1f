package catalog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopcore/backend/internal/domain/catalog"
	"github.com/shopcore/backend/internal/domain/shared"
)

// ProductService serves the catalog read API
type ProductService struct {
	productRepo catalog.ProductRepository
	variantRepo catalog.VariantRepository
	logger      *zap.Logger
}

// NewProductService creates a product query service
func NewProductService(productRepo catalog.ProductRepository, variantRepo catalog.VariantRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		variantRepo: variantRepo,
		logger:      logger.Named("product_service"),
	}
}

// GetProduct returns one product with its variants
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	variants, err := s.variantRepo.FindByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, variants)
	return &resp, nil
}

// ListProducts returns a page of products with their variants
func (s *ProductService) ListProducts(ctx context.Context, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 && filter.PageSize <= 100 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search

	products, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		variants, err := s.variantRepo.FindByProduct(ctx, products[i].ID)
		if err != nil {
			return nil, err
		}
		items = append(items, ToProductResponse(&products[i], variants))
	}

	totalPages := int(total) / f.PageSize
	if int(total)%f.PageSize > 0 {
		totalPages++
	}
	return &shared.Paginated[ProductResponse]{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages,
	}, nil
}
