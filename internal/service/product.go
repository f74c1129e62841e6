package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/cache"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// ProductService implements the business logic for catalog operations.
type ProductService struct {
	repo     repository.ProductRepository
	reviews  repository.ReviewRepository
	cache    cache.Cache
	producer *event.Producer
	logger   *slog.Logger
}

// NewProductService creates a new product service. A nil cache disables
// caching of catalog listings.
func NewProductService(
	repo repository.ProductRepository,
	reviews repository.ReviewRepository,
	c cache.Cache,
	producer *event.Producer,
	logger *slog.Logger,
) *ProductService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ProductService{
		repo:     repo,
		reviews:  reviews,
		cache:    c,
		producer: producer,
		logger:   logger,
	}
}

// CreateProduct validates the input and stores a new product.
func (s *ProductService) CreateProduct(ctx context.Context, input domain.CreateProductInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	product := domain.NewProduct(uuid.New().String(), input, time.Now().UTC())
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	cache.Invalidate(ctx, s.cache, s.logger, cache.CatalogKeys...)

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("category_id", product.CategoryID),
	)

	return product, nil
}

// UpdateProduct merges the supplied fields into an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input domain.UpdateProductInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", translate(err, "product"))
	}

	input.Apply(product, time.Now().UTC())

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", translate(err, "product"))
	}

	cache.Invalidate(ctx, s.cache, s.logger, cache.CatalogKeys...)

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", product.ID))

	return product, nil
}

// DeleteProduct removes a product and returns it. Deleting an unknown id is
// not an error: it returns (nil, nil).
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}
	if product == nil {
		s.logger.InfoContext(ctx, "product delete matched nothing", slog.String("product_id", id))
		return nil, nil
	}

	cache.Invalidate(ctx, s.cache, s.logger, cache.CatalogKeys...)

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))

	return product, nil
}

// GetProduct retrieves a product with its reviews.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", translate(err, "product"))
	}
	return product, nil
}

// SearchProducts returns one page of products whose name contains keyword.
// The page size is fixed.
func (s *ProductService) SearchProducts(ctx context.Context, keyword string, page pagination.Params) (pagination.Page[domain.Product], error) {
	page.PerPage = domain.SearchPageSize
	if page.Page <= 0 {
		page.Page = 1
	}

	products, total, err := s.repo.Search(ctx, repository.ProductFilter{
		Keyword: keyword,
		Page:    page.Page,
		PerPage: page.PerPage,
	})
	if err != nil {
		return pagination.Page[domain.Product]{}, fmt.Errorf("search products: %w", err)
	}

	s.attachReviews(ctx, products)
	return pagination.NewPage(products, total, page), nil
}

// ListAllProducts returns the newest products with their category populated.
func (s *ProductService) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	return s.cachedList(ctx, cache.KeyAllProducts, repository.SortNewest, domain.AllProductsMax, true)
}

// TopProducts returns the best rated products.
func (s *ProductService) TopProducts(ctx context.Context) ([]domain.Product, error) {
	return s.cachedList(ctx, cache.KeyTopProducts, repository.SortTopRated, domain.TopProductsMax, false)
}

// NewProducts returns the most recently created products.
func (s *ProductService) NewProducts(ctx context.Context) ([]domain.Product, error) {
	return s.cachedList(ctx, cache.KeyNewProducts, repository.SortNewest, domain.NewProductsMax, false)
}

func (s *ProductService) cachedList(ctx context.Context, key string, sort repository.ProductSort, limit int, withCategory bool) ([]domain.Product, error) {
	products, err := cache.GetOrLoad(ctx, s.cache, s.logger, key, func(ctx context.Context) ([]domain.Product, error) {
		products, err := s.repo.List(ctx, sort, limit, withCategory)
		if err != nil {
			return nil, err
		}
		s.attachReviews(ctx, products)
		return products, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list products %s: %w", key, err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// attachReviews batch-loads the reviews of a product listing. A failure is
// logged and leaves every product with an empty review list.
func (s *ProductService) attachReviews(ctx context.Context, products []domain.Product) {
	if len(products) == 0 {
		return
	}

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	byProduct, err := s.reviews.ListByProductIDs(ctx, ids)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load reviews for product list",
			slog.String("error", err.Error()),
		)
		byProduct = map[string][]domain.Review{}
	}

	for i := range products {
		reviews := byProduct[products[i].ID]
		if reviews == nil {
			reviews = []domain.Review{}
		}
		products[i].Reviews = reviews
	}
}
