package products

import (
	"context"
	"errors"
	"strings"

	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
)

type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (*Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Update(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, term string, limit int) (*SearchResult, error)
}

type service struct {
	repo   Repository
	index  Index
	logger logger.Logger
}

// NewService wires the catalog. index may be nil, in which case search runs
// against Postgres.
func NewService(repo Repository, index Index, log logger.Logger) Service {
	return &service{repo: repo, index: index, logger: log}
}

func (s *service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	p, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, s.mapError("create product", err)
	}
	s.reindex(ctx, p)
	return p, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError("get product", err)
	}
	return p, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list products", err)
	}
	return products, nil
}

func (s *service) Update(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error) {
	p, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, s.mapError("update product", err)
	}
	s.reindex(ctx, p)
	return p, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError("delete product", err)
	}

	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			s.logger.Warn("Failed to remove product from search index", map[string]interface{}{
				"productId": id,
				"error":     err.Error(),
			})
		}
	}
	s.logger.Info("Product deleted", map[string]interface{}{"productId": id})
	return nil
}

// Search prefers the index and drops to ILIKE when it is missing or failing.
func (s *service) Search(ctx context.Context, term string, limit int) (*SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperrors.NewValidationError("Search term is required", "query parameter q is empty")
	}
	limit = clampLimit(limit)

	if s.index != nil {
		products, total, err := s.index.Search(ctx, term, limit)
		if err == nil {
			return &SearchResult{Products: products, Total: total, Source: SourceElasticsearch}, nil
		}
		fields := map[string]interface{}{
			"term":  term,
			"error": err.Error(),
		}
		var searchErr *apperrors.StandardError
		if errors.As(err, &searchErr) {
			fields["code"] = searchErr.Code
			fields["details"] = searchErr.Details
		}
		s.logger.Warn("Search index query failed, falling back to database", fields)
	}

	products, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("search products", err)
	}
	return &SearchResult{Products: products, Total: int64(len(products)), Source: SourcePostgres}, nil
}

func (s *service) reindex(ctx context.Context, p *Product) {
	if s.index == nil {
		return
	}
	if err := s.index.Put(ctx, p); err != nil {
		s.logger.Warn("Failed to index product", map[string]interface{}{
			"productId": p.ID,
			"error":     err.Error(),
		})
	}
}

func (s *service) mapError(op string, err error) error {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return apperrors.NewResourceNotFoundError("Product", "")
	case errors.Is(err, ErrSKUExists):
		return apperrors.NewDuplicateResourceError("Product", err.Error())
	case errors.Is(err, ErrProductInUse):
		return apperrors.NewResourceInUseError("Product", "remove its inventory rows first")
	default:
		return apperrors.NewDatabaseQueryFailedError(op, err)
	}
}
