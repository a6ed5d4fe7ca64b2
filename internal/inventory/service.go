package inventory

import (
	"context"
	"errors"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
)

type Service interface {
	List(ctx context.Context, caller api.Principal, filter ListFilter) ([]Item, error)
	Upsert(ctx context.Context, caller api.Principal, req UpsertRequest) (*Item, error)
	Update(ctx context.Context, caller api.Principal, id int64, req UpdateRequest) (*Item, error)
	Adjust(ctx context.Context, caller api.Principal, id int64, req AdjustRequest) (*Item, error)
}

type service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) Service {
	return &service{repo: repo, logger: log}
}

func (s *service) List(ctx context.Context, caller api.Principal, filter ListFilter) ([]Item, error) {
	filter.OwnerID = nil
	if !caller.IsAdmin() {
		filter.OwnerID = &caller.UserID
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list inventory", err)
	}
	return items, nil
}

func (s *service) Upsert(ctx context.Context, caller api.Principal, req UpsertRequest) (*Item, error) {
	if err := checkThresholds(req.MinStock, req.MaxStock); err != nil {
		return nil, err
	}

	if !caller.IsAdmin() {
		owned, err := s.repo.IsFranchiseOwner(ctx, req.FranchiseID, caller.UserID)
		if err != nil {
			return nil, apperrors.NewDatabaseQueryFailedError("check franchise owner", err)
		}
		if !owned {
			return nil, apperrors.NewForbiddenError("franchise is not yours")
		}
	}

	item, err := s.repo.Upsert(ctx, req)
	if err != nil {
		if errors.Is(err, ErrInvalidReference) {
			return nil, apperrors.NewValidationError("Invalid reference", err.Error())
		}
		return nil, s.mapError("upsert inventory", err)
	}

	s.logLevel(item)
	return item, nil
}

func (s *service) Update(ctx context.Context, caller api.Principal, id int64, req UpdateRequest) (*Item, error) {
	current, err := s.get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	minStock := current.MinStock
	if req.MinStock != nil {
		minStock = *req.MinStock
	}
	maxStock := current.MaxStock
	if req.MaxStock != nil {
		maxStock = req.MaxStock
	}
	if err := checkThresholds(minStock, maxStock); err != nil {
		return nil, err
	}

	item, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, s.mapError("update inventory", err)
	}

	s.logLevel(item)
	return item, nil
}

func (s *service) Adjust(ctx context.Context, caller api.Principal, id int64, req AdjustRequest) (*Item, error) {
	if req.Delta == 0 {
		return nil, apperrors.NewValidationError("delta must not be zero", "")
	}
	if _, err := s.get(ctx, caller, id); err != nil {
		return nil, err
	}

	item, err := s.repo.Adjust(ctx, id, req.Delta)
	if err != nil {
		return nil, s.mapError("adjust inventory", err)
	}

	s.logger.Info("Inventory adjusted", map[string]interface{}{
		"itemId":   id,
		"delta":    req.Delta,
		"quantity": item.Quantity,
		"reason":   req.Reason,
		"userId":   caller.UserID,
	})
	s.logLevel(item)
	return item, nil
}

// get loads an item the caller may touch. Items of other franchises are
// reported as missing.
func (s *service) get(ctx context.Context, caller api.Principal, id int64) (*Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError("get inventory", err)
	}
	if !caller.IsAdmin() && item.FranchiseOwnerID != caller.UserID {
		return nil, apperrors.NewResourceNotFoundError("Inventory item", "")
	}
	return item, nil
}

func (s *service) logLevel(item *Item) {
	if item.StockLevel == StockOK {
		return
	}
	s.logger.Warn("Inventory outside thresholds", map[string]interface{}{
		"itemId":      item.ID,
		"franchiseId": item.FranchiseID,
		"productId":   item.ProductID,
		"quantity":    item.Quantity,
		"stockLevel":  item.StockLevel,
	})
}

func (s *service) mapError(op string, err error) error {
	switch {
	case errors.Is(err, ErrItemNotFound):
		return apperrors.NewResourceNotFoundError("Inventory item", "")
	case errors.Is(err, ErrInvalidThresholds):
		return apperrors.NewValidationError("Invalid stock thresholds", err.Error())
	case errors.Is(err, ErrQuantityRange):
		return apperrors.NewValidationError("Invalid quantity", err.Error())
	default:
		return apperrors.NewDatabaseQueryFailedError(op, err)
	}
}

func checkThresholds(minStock int, maxStock *int) error {
	if maxStock != nil && *maxStock < minStock {
		return apperrors.NewValidationError("maxStock must not be below minStock", "")
	}
	return nil
}
