package wishlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

var (
	ErrProductNotFound = pkgerrors.Kind(pkgerrors.CodeNotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrItemNotFound    = pkgerrors.Kind(pkgerrors.CodeNotFound, "WISHLIST_ITEM_NOT_FOUND", "product is not in the wishlist")
)

type wishlistRepository interface {
	AddItem(ctx context.Context, item *models.WishlistItem) (bool, error)
	FindItem(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (int64, error)
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
}

// Service manages per-user saved products.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) (*WishlistDTO, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (*WishlistItemDTO, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	repo wishlistRepository
	logg *logger.Logger
}

func NewService(repo wishlistRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) (*WishlistDTO, error) {
	rows, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	out := &WishlistDTO{Items: make([]WishlistItemDTO, 0, len(rows))}
	for i := range rows {
		out.Items = append(out.Items, newItemDTO(&rows[i]))
	}
	return out, nil
}

// Add saves the product. Adding a product that is already saved returns the
// existing entry.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) (*WishlistItemDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required").
			WithDetails(map[string]any{"field": "productId"})
	}
	inserted, err := s.repo.AddItem(ctx, &models.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
	})
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrProductNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}

	item, err := s.repo.FindItem(ctx, userID, productID)
	if err != nil {
		return nil, repo.NotFoundOr(err, ErrItemNotFound, "load wishlist item")
	}
	if inserted {
		s.logg.Info(s.logg.WithField(ctx, "product_id", productID.String()), "wishlist.item_added")
	}
	dto := newItemDTO(item)
	return &dto, nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	n, err := s.repo.RemoveItem(ctx, userID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}
