package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox/payloads"
)

const uniqueCartProduct = "cart_items_cart_product_key"

var defaultShippingFee = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns the user's single active cart. Every mutation rewrites the
// cart totals in the same transaction; a failed recomputation fails the
// mutation.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartItemDTO, error)
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartItemDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	GetSnapshot(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	GetCount(ctx context.Context, userID uuid.UUID) (int64, error)
	RecomputeTotals(ctx context.Context, userID uuid.UUID) error
	// DiscardProducts drops the products of a just-placed order from the
	// user's cart inside the caller's transaction. A missing cart is not an error.
	DiscardProducts(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, productIDs []uuid.UUID) error
}

type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Logger  *logger.Logger
	Metrics *metrics.DomainMetrics
	// Events is optional; when set, cart clears are queued on the outbox.
	Events eventEmitter
	// DefaultShippingFee applies per line when the product has none; zero means 100.
	DefaultShippingFee decimal.Decimal
}

type service struct {
	repo       Repository
	tx         txRunner
	logg       *logger.Logger
	metrics    *metrics.DomainMetrics
	events     eventEmitter
	defaultFee decimal.Decimal
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	fee := params.DefaultShippingFee
	if fee.IsZero() {
		fee = defaultShippingFee
	}
	if fee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default shipping fee must not be negative")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		logg:       params.Logger,
		metrics:    params.Metrics,
		events:     params.Events,
		defaultFee: fee,
	}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartItemDTO, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var created *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)

		product, err := r.FindProduct(ctx, input.ProductID)
		if err != nil {
			return repo.NotFoundOr(err, ErrProductNotFound, "load product")
		}

		cart, err := r.EnsureForUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		_, err = r.FindItem(ctx, cart.ID, product.ID)
		switch {
		case err == nil:
			return ErrDuplicateItem
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		item := &models.CartItem{
			ID:            uuid.New(),
			CartID:        cart.ID,
			ProductID:     product.ID,
			Quantity:      input.Quantity,
			SelectedColor: input.SelectedColor,
			SelectedSize:  input.SelectedSize,
		}
		if err := r.CreateItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, uniqueCartProduct) {
				return ErrDuplicateItem
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}
		item.Product = product

		if _, err := s.recompute(ctx, r, cart.ID); err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCartMutation("add_item")
	return newCartItemDTO(created), nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartItemDTO, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var updated *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)

		cart, err := r.LockByUser(ctx, userID)
		if err != nil {
			return repo.NotFoundOr(err, ErrCartNotFound, "load cart")
		}
		item, err := r.FindItem(ctx, cart.ID, productID)
		if err != nil {
			return repo.NotFoundOr(err, ErrItemNotFound, "load cart item")
		}
		if item.Product == nil {
			return ErrProductNotFound
		}
		if quantity > item.Product.StockQuantity {
			return ErrQuantityExceedsStock.WithDetails(map[string]any{
				"max_allowed": item.Product.StockQuantity,
			})
		}

		if err := r.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		if _, err := s.recompute(ctx, r, cart.ID); err != nil {
			return err
		}
		item.Quantity = quantity
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCartMutation("update_quantity")
	return newCartItemDTO(updated), nil
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)

		cart, err := r.LockByUser(ctx, userID)
		if err != nil {
			return repo.NotFoundOr(err, ErrCartNotFound, "load cart")
		}
		item, err := r.FindItem(ctx, cart.ID, productID)
		if err != nil {
			return repo.NotFoundOr(err, ErrItemNotFound, "load cart item")
		}
		if err := r.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		_, err = s.recompute(ctx, r, cart.ID)
		return err
	})
	if err != nil {
		return err
	}
	s.metrics.IncCartMutation("remove_item")
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	var removed int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)

		cart, err := r.LockByUser(ctx, userID)
		if err != nil {
			return repo.NotFoundOr(err, ErrCartNotFound, "load cart")
		}
		removed, err = r.DeleteItems(ctx, cart.ID, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		if _, err := s.recompute(ctx, r, cart.ID); err != nil {
			return err
		}
		return s.emitCleared(ctx, tx, cart, nil, nil)
	})
	if err != nil {
		return err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "removed_items": removed})
	s.logg.Info(ctx, "cart.cleared")
	s.metrics.IncCartMutation("clear")
	return nil
}

// GetSnapshot refreshes the totals against live product data before reading,
// so the returned cart always satisfies the totals invariant.
func (s *service) GetSnapshot(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	var snapshot *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)

		cart, err := r.LockByUser(ctx, userID)
		if err != nil {
			return repo.NotFoundOr(err, ErrCartNotFound, "load cart")
		}
		if _, err := s.recompute(ctx, r, cart.ID); err != nil {
			return err
		}
		snapshot, err = r.FindSnapshot(ctx, userID)
		if err != nil {
			return repo.NotFoundOr(err, ErrCartNotFound, "load cart snapshot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newCartDTO(snapshot), nil
}

func (s *service) GetCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.SumQuantity(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart items")
	}
	return count, nil
}

// RecomputeTotals is a no-op for users without a cart.
func (s *service) RecomputeTotals(ctx context.Context, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)

		cart, err := r.LockByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		_, err = s.recompute(ctx, r, cart.ID)
		return err
	})
}

func (s *service) DiscardProducts(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	r := s.repo.WithTx(tx)

	cart, err := r.LockByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	removed, err := r.DeleteItems(ctx, cart.ID, productIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discard cart items")
	}
	if removed == 0 {
		return nil
	}
	if _, err := s.recompute(ctx, r, cart.ID); err != nil {
		return err
	}
	return s.emitCleared(ctx, tx, cart, productIDs, &orderID)
}

func (s *service) emitCleared(ctx context.Context, tx *gorm.DB, cart *models.Cart, productIDs []uuid.UUID, orderID *uuid.UUID) error {
	if s.events == nil {
		return nil
	}
	err := s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCartCleared,
		AggregateType: enums.AggregateCart,
		AggregateID:   cart.ID,
		Actor:         &outbox.ActorRef{UserID: cart.UserID, Role: string(enums.ActorRoleUser)},
		Data: payloads.CartClearedEvent{
			CartID:       cart.ID,
			UserID:       cart.UserID,
			ProductIDs:   productIDs,
			TriggerOrder: orderID,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue cart cleared event")
	}
	return nil
}

func (s *service) recompute(ctx context.Context, r Repository, cartID uuid.UUID) (Totals, error) {
	items, err := r.ListItems(ctx, cartID)
	if err != nil {
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	totals, err := ComputeTotals(items, s.defaultFee)
	if err != nil {
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute cart totals")
	}
	if err := r.SaveTotals(ctx, cartID, totals); err != nil {
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart totals")
	}
	return totals, nil
}
