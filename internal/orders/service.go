package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

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
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

const defaultDeliveryDays = 7

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// cartDiscarder removes ordered products from the buyer's cart in the
// placement transaction.
type cartDiscarder interface {
	DiscardProducts(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, productIDs []uuid.UUID) error
}

// Service places orders and serves order reads and admin updates.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[OrderDTO], error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error)
	ListByStore(ctx context.Context, actor Actor, storeID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Outbox  eventEmitter
	Logger  *logger.Logger
	Metrics *metrics.DomainMetrics
	// Cart is required when ClearCart is set.
	Cart                cartDiscarder
	ClearCart           bool
	DefaultDeliveryDays int
	Now                 func() time.Time
}

type service struct {
	repo         Repository
	tx           txRunner
	outbox       eventEmitter
	logg         *logger.Logger
	metrics      *metrics.DomainMetrics
	cart         cartDiscarder
	clearCart    bool
	deliveryDays int
	now          func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.ClearCart && params.Cart == nil {
		return nil, fmt.Errorf("cart service required when clearing carts on placement")
	}
	days := params.DefaultDeliveryDays
	if days <= 0 {
		days = defaultDeliveryDays
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		outbox:       params.Outbox,
		logg:         params.Logger,
		metrics:      params.Metrics,
		cart:         params.Cart,
		clearCart:    params.ClearCart,
		deliveryDays: days,
		now:          now,
	}, nil
}

func fieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}

// parseID reads a required uuid field. Blank and malformed values get
// separate messages.
func parseID(field, raw, required, invalid string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fieldError(field, required)
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fieldError(field, invalid)
	}
	return id, nil
}

// parseAmount reads a decimal and rounds it to cents before any range check,
// so the checked value is the stored one.
func parseAmount(raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, false
	}
	return amount.Round(2), true
}

type validatedOrder struct {
	total      decimal.Decimal
	addressID  uuid.UUID
	storeIDs   []uuid.UUID
	itemIDs    []uuid.UUID
	productIDs []uuid.UUID
	prices     []decimal.Decimal
	days       int
}

// validatePlaceOrder fails on the first violated precondition, in a fixed order.
func (s *service) validatePlaceOrder(input PlaceOrderInput) (*validatedOrder, error) {
	if len(input.Items) == 0 {
		return nil, fieldError("orderItems", "At least one order item is required")
	}
	if len(input.StoreIDs) == 0 {
		return nil, fieldError("storeIds", "At least one store ID is required")
	}
	total, ok := parseAmount(input.TotalAmount)
	if !ok || !total.IsPositive() {
		return nil, fieldError("totalAmount", "Total amount must be a number greater than zero")
	}
	addressID, err := parseID("selectedAddressId", input.SelectedAddressID,
		"Selected address ID is required", "Selected address ID must be a valid UUID")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.SelectedPaymentMethod) == "" {
		return nil, fieldError("selectedPaymentMethod", "Selected payment method is required")
	}

	itemIDs := make([]uuid.UUID, len(input.Items))
	prices := make([]decimal.Decimal, len(input.Items))
	for i, item := range input.Items {
		field := fmt.Sprintf("orderItems[%d]", i)
		id, err := parseID(field+".productId", item.ProductID,
			"Order item product ID is required", "Order item product ID must be a valid UUID")
		if err != nil {
			return nil, err
		}
		if item.Quantity <= 0 {
			return nil, fieldError(field+".quantity", "Order item quantity must be greater than zero")
		}
		price, ok := parseAmount(item.Price)
		if !ok || price.IsNegative() {
			return nil, fieldError(field+".price", "Order item price must be a non-negative number")
		}
		itemIDs[i], prices[i] = id, price
	}
	storeIDs := make([]uuid.UUID, len(input.StoreIDs))
	for i, raw := range input.StoreIDs {
		id, err := parseID(fmt.Sprintf("storeIds[%d]", i), raw,
			"Store ID must not be empty", "Store ID must be a valid UUID")
		if err != nil {
			return nil, err
		}
		storeIDs[i] = id
	}

	days := s.deliveryDays
	if input.ExpectedDeliveryDays != nil {
		if *input.ExpectedDeliveryDays <= 0 {
			return nil, fieldError("expectedDeliveryDays", "Expected delivery days must be greater than zero")
		}
		days = *input.ExpectedDeliveryDays
	}

	return &validatedOrder{
		total:      total,
		addressID:  addressID,
		storeIDs:   uniqueIDs(storeIDs),
		itemIDs:    itemIDs,
		productIDs: uniqueIDs(itemIDs),
		prices:     prices,
		days:       days,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error) {
	valid, err := s.validatePlaceOrder(input)
	if err != nil {
		s.metrics.IncOrderFailure("validation")
		return nil, err
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:                    uuid.New(),
		UserID:                userID,
		TotalAmount:           valid.total,
		SelectedAddressID:     valid.addressID,
		SelectedPaymentMethod: strings.TrimSpace(input.SelectedPaymentMethod),
		OrderComment:          input.OrderComment,
		Status:                enums.OrderStatusPending,
		ExpectedDeliveryDate:  now.AddDate(0, 0, valid.days),
	}
	items := make([]models.OrderItem, 0, len(input.Items))
	for i, item := range input.Items {
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: valid.itemIDs[i],
			Quantity:  item.Quantity,
			Price:     valid.prices[i],
		})
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":   order.ID.String(),
		"user_id":    userID.String(),
		"item_count": len(items),
	})

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		if err := r.Create(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := r.CreateItems(ctx, items); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		if err := r.LinkStores(ctx, order.ID, valid.storeIDs); err != nil {
			return fmt.Errorf("link order stores: %w", err)
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.ActorRoleUser)},
			OccurredAt:    now,
			Data: payloads.OrderPlacedEvent{
				OrderID:     order.ID,
				UserID:      userID,
				StoreIDs:    valid.storeIDs,
				ItemCount:   len(items),
				TotalAmount: order.TotalAmount,
			},
		}); err != nil {
			return fmt.Errorf("queue order placed event: %w", err)
		}
		if s.clearCart {
			if err := s.cart.DiscardProducts(ctx, tx, userID, order.ID, valid.productIDs); err != nil {
				return fmt.Errorf("discard cart items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		// A missing address, product or store is the client's problem; anything
		// else is the database's.
		reason, failure := "persistence", ErrOrderPersistFailed
		if db.IsForeignKeyViolation(err) {
			reason, failure = "missing_reference", ErrOrderCreationFailed
		}
		s.metrics.IncOrderFailure(reason)
		s.logg.Error(s.logg.WithField(ctx, "reason", reason), "orders.place_failed", err)
		return nil, failure.WithCause(err)
	}

	s.metrics.IncOrderPlaced()
	s.logg.Info(ctx, "orders.placed")
	return NewOrderDTO(order), nil
}

// Get returns the order with its items. Buyers only see their own orders;
// vendors see orders that include one of their stores.
func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, repo.NotFoundOr(err, ErrOrderNotFound, "load order")
	}
	if err := s.authorizeOrder(ctx, s.repo, actor, order); err != nil {
		return nil, err
	}
	return NewOrderDTO(order), nil
}

func (s *service) authorizeOrder(ctx context.Context, r Repository, actor Actor, order *models.Order) error {
	switch actor.Role {
	case enums.ActorRoleAdmin:
		return nil
	case enums.ActorRoleVendor:
		if order.UserID == actor.UserID {
			return nil
		}
		ok, err := r.OrderHasStoreOwnedBy(ctx, order.ID, actor.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order store ownership")
		}
		if !ok {
			return ErrOrderNotFound
		}
		return nil
	default:
		if order.UserID != actor.UserID {
			return ErrOrderNotFound
		}
		return nil
	}
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[OrderDTO], error) {
	return s.list(ctx, ListFilter{}, params)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error) {
	return s.list(ctx, ListFilter{UserID: userID}, params)
}

func (s *service) ListByStore(ctx context.Context, actor Actor, storeID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if actor.Role != enums.ActorRoleAdmin {
		owned, err := s.repo.StoreOwnedBy(ctx, storeID, actor.UserID)
		if err != nil {
			return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check store ownership")
		}
		if !owned {
			return pagination.Page[OrderDTO]{}, ErrStoreNotFound
		}
	}
	return s.list(ctx, ListFilter{StoreID: storeID}, params)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderPageDTO(page), nil
}

// UpdateStatus overwrites the status with any valid label. Transition
// legality belongs to the fulfillment workflow, not to this service.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		order, err := r.FindByID(ctx, id)
		if err != nil {
			return repo.NotFoundOr(err, ErrOrderNotFound, "load order")
		}
		if actor.Role != enums.ActorRoleAdmin {
			owned, err := r.OrderHasStoreOwnedBy(ctx, order.ID, actor.UserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order store ownership")
			}
			if !owned {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order does not include a store you own")
			}
		}
		if err := r.UpdateStatus(ctx, id, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   id,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        id,
				PreviousStatus: order.Status,
				Status:         status,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, repo.NotFoundOr(err, ErrOrderNotFound, "reload order")
	}
	return NewOrderDTO(order), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		n, err := r.Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		if n == 0 {
			return ErrOrderNotFound
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   id,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data:          payloads.OrderDeletedEvent{OrderID: id},
		})
	})
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
