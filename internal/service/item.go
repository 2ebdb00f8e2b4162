package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/repository"
)

type itemService struct {
	items repository.ItemRepository
	users repository.UserRepository
}

func NewItemService(items repository.ItemRepository, users repository.UserRepository) ItemService {
	return &itemService{items: items, users: users}
}

func validateItem(item *domain.Item) error {
	if strings.TrimSpace(item.Title) == "" {
		return domain.NewError(domain.ErrValidation, "item title is required")
	}
	if item.PricePerDayCents <= 0 {
		return domain.NewError(domain.ErrValidation, "price per day must be positive")
	}
	if item.DepositCents < 0 || item.InsuranceFeeCents < 0 {
		return domain.NewError(domain.ErrValidation, "deposit and insurance fee must not be negative")
	}
	return nil
}

func (s *itemService) AddItem(ctx context.Context, item *domain.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, item.OwnerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewError(domain.ErrNotFound, "owner %s not found", item.OwnerID)
		}
		return fmt.Errorf("fetching owner %s: %w", item.OwnerID, err)
	}
	item.ID = uuid.New().String()
	if err := s.items.Create(ctx, item); err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

func (s *itemService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, "item %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching item %s: %w", id, err)
	}
	return item, nil
}

func (s *itemService) UpdateItem(ctx context.Context, callerID string, item *domain.Item) error {
	existing, err := s.GetItem(ctx, item.ID)
	if err != nil {
		return err
	}
	if existing.OwnerID != callerID {
		return domain.NewError(domain.ErrUnauthorized, "only the owner may update an item")
	}
	if err := validateItem(item); err != nil {
		return err
	}
	item.OwnerID = existing.OwnerID
	item.CreatedOn = existing.CreatedOn
	if err := s.items.Update(ctx, item); err != nil {
		return fmt.Errorf("updating item %s: %w", item.ID, err)
	}
	return nil
}

func (s *itemService) DeleteItem(ctx context.Context, callerID, id string) error {
	existing, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if existing.OwnerID != callerID {
		return domain.NewError(domain.ErrUnauthorized, "only the owner may delete an item")
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}
	return nil
}

func (s *itemService) SearchItems(ctx context.Context, query, category string, maxPriceCents, page, pageSize int64) ([]domain.Item, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.items.Search(ctx, query, category, maxPriceCents, page, pageSize)
}
