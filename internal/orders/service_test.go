package orders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

type orderFixture struct {
	conn    *gorm.DB
	svc     Service
	cart    cart.Service
	now     time.Time
	buyer   *models.User
	vendor  *models.User
	store   *models.Store
	address *models.Address
	p1      *models.Product
	p2      *models.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	tx := db.Wrap(conn)
	events := outbox.NewService(outbox.NewRepository(conn), logg)

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Repo:   cart.NewRepository(conn),
		Tx:     tx,
		Logger: logg,
		Events: events,
	})
	require.NoError(t, err)

	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		Tx:        tx,
		Outbox:    events,
		Logger:    logg,
		Cart:      cartSvc,
		ClearCart: true,
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)

	buyer := dbtest.SeedUser(t, conn)
	vendor := dbtest.SeedUser(t, conn)
	store := dbtest.SeedStore(t, conn, vendor.ID)
	return &orderFixture{
		conn:    conn,
		svc:     svc,
		cart:    cartSvc,
		now:     now,
		buyer:   buyer,
		vendor:  vendor,
		store:   store,
		address: dbtest.SeedAddress(t, conn, buyer.ID),
		p1:      dbtest.SeedProduct(t, conn, store.ID, "50", dbtest.WithShippingFee("10")),
		p2:      dbtest.SeedProduct(t, conn, store.ID, "30"),
	}
}

func (f *orderFixture) input() PlaceOrderInput {
	return PlaceOrderInput{
		Items: []PlaceOrderItem{
			{ProductID: f.p1.ID.String(), Quantity: 2, Price: "45.00"},
		},
		StoreIDs:              []string{f.store.ID.String()},
		TotalAmount:           "100",
		SelectedAddressID:     f.address.ID.String(),
		SelectedPaymentMethod: "cash_on_delivery",
	}
}

func (f *orderFixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func requireField(t *testing.T, err error, field, message string) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, message, typed.Message())
	assert.Equal(t, map[string]any{"field": field}, typed.Details())
}

func TestPlaceOrderPersistsEverythingAndTrimsCart(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, f.buyer.ID, cart.AddItemInput{ProductID: f.p1.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, f.buyer.ID, cart.AddItemInput{ProductID: f.p2.ID, Quantity: 1})
	require.NoError(t, err)

	order, err := f.svc.PlaceOrder(ctx, f.buyer.ID, f.input())
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.True(t, order.ExpectedDeliveryDate.Equal(f.now.AddDate(0, 0, 7)))
	assert.Empty(t, order.Items, "placement returns the order without items")

	var items []models.OrderItem
	require.NoError(t, f.conn.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.True(t, decimal.RequireFromString("45").Equal(items[0].Price), "client price is stored verbatim")

	assert.EqualValues(t, 1, f.count(t, &models.OrderStore{}))

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Order("created_at ASC").Find(&events).Error)
	types := make([]enums.OutboxEventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	assert.ElementsMatch(t, []enums.OutboxEventType{enums.EventOrderPlaced, enums.EventCartCleared}, types)

	snap, err := f.cart.GetSnapshot(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, f.p2.ID, snap.Items[0].ProductID)
	assert.True(t, decimal.NewFromInt(130).Equal(snap.TotalAmount))
}

func TestPlaceOrderRequiresStores(t *testing.T) {
	f := newOrderFixture(t)
	in := f.input()
	in.StoreIDs = nil

	_, err := f.svc.PlaceOrder(context.Background(), f.buyer.ID, in)
	requireField(t, err, "storeIds", "At least one store ID is required")
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestPlaceOrderValidationOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	in := f.input()
	in.Items = nil
	in.StoreIDs = nil
	_, err := f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	requireField(t, err, "orderItems", "At least one order item is required")

	for _, raw := range []string{"", "abc", "0", "-5", "0.004"} {
		in = f.input()
		in.TotalAmount = raw
		in.SelectedAddressID = ""
		_, err = f.svc.PlaceOrder(ctx, f.buyer.ID, in)
		requireField(t, err, "totalAmount", "Total amount must be a number greater than zero")
	}

	in = f.input()
	in.SelectedAddressID = ""
	in.SelectedPaymentMethod = ""
	_, err = f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	requireField(t, err, "selectedAddressId", "Selected address ID is required")

	in = f.input()
	in.SelectedAddressID = "not-a-uuid"
	in.SelectedPaymentMethod = ""
	_, err = f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	requireField(t, err, "selectedAddressId", "Selected address ID must be a valid UUID")

	in = f.input()
	in.SelectedPaymentMethod = "  "
	_, err = f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	requireField(t, err, "selectedPaymentMethod", "Selected payment method is required")

	in = f.input()
	in.Items[0].ProductID = ""
	in.Items[0].Quantity = 0
	_, err = f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	requireField(t, err, "orderItems[0].productId", "Order item product ID is required")

	in = f.input()
	in.Items[0].ProductID = "p-1"
	_, err = f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	requireField(t, err, "orderItems[0].productId", "Order item product ID must be a valid UUID")

	in = f.input()
	in.Items[0].Quantity = 0
	_, err = f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	requireField(t, err, "orderItems[0].quantity", "Order item quantity must be greater than zero")

	in = f.input()
	in.StoreIDs = append(in.StoreIDs, "")
	_, err = f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	requireField(t, err, "storeIds[1]", "Store ID must not be empty")

	in = f.input()
	in.StoreIDs = []string{"store-7"}
	_, err = f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	requireField(t, err, "storeIds[0]", "Store ID must be a valid UUID")

	in = f.input()
	days := 0
	in.ExpectedDeliveryDays = &days
	_, err = f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	requireField(t, err, "expectedDeliveryDays", "Expected delivery days must be greater than zero")
}

func TestPlaceOrderAcceptsNumericTotalAndCustomDelivery(t *testing.T) {
	f := newOrderFixture(t)
	in := f.input()
	in.TotalAmount = "99.5"
	days := 3
	in.ExpectedDeliveryDays = &days

	order, err := f.svc.PlaceOrder(context.Background(), f.buyer.ID, in)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("99.5").Equal(order.TotalAmount))
	assert.True(t, order.ExpectedDeliveryDate.Equal(f.now.AddDate(0, 0, 3)))
}

func TestPlaceOrderEmptyBodyReportsItemsFirst(t *testing.T) {
	f := newOrderFixture(t)
	in := PlaceOrderInput{
		StoreIDs:              []string{},
		TotalAmount:           "10",
		SelectedAddressID:     "",
		SelectedPaymentMethod: "cod",
	}

	_, err := f.svc.PlaceOrder(context.Background(), f.buyer.ID, in)
	requireField(t, err, "orderItems", "At least one order item is required")
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestPlaceOrderStoresRoundedAmounts(t *testing.T) {
	f := newOrderFixture(t)
	in := f.input()
	in.TotalAmount = "0.005"
	in.Items[0].Price = "12.345"

	order, err := f.svc.PlaceOrder(context.Background(), f.buyer.ID, in)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.01").Equal(order.TotalAmount), "got %s", order.TotalAmount)

	var item models.OrderItem
	require.NoError(t, f.conn.Where("order_id = ?", order.ID).First(&item).Error)
	assert.True(t, decimal.RequireFromString("12.35").Equal(item.Price), "got %s", item.Price)
}

func TestPlaceOrderDatabaseFailureIsDependencyError(t *testing.T) {
	f := newOrderFixture(t)
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(f.conn),
		Tx:     failingTx{err: errors.New("connection refused")},
		Outbox: outbox.NewService(outbox.NewRepository(f.conn), logg),
		Logger: logg,
	})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), f.buyer.ID, f.input())
	require.ErrorIs(t, err, ErrOrderPersistFailed)
	assert.NotErrorIs(t, err, ErrOrderCreationFailed)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
	assert.EqualValues(t, "ORDER_CREATION_FAILED", typed.Reason())
}

type failingTx struct{ err error }

func (f failingTx) WithTx(context.Context, func(*gorm.DB) error) error { return f.err }

func TestPlaceOrderRollsBackOnMissingProduct(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	_, err := f.cart.AddItem(ctx, f.buyer.ID, cart.AddItemInput{ProductID: f.p1.ID, Quantity: 1})
	require.NoError(t, err)
	outboxBefore := f.count(t, &models.OutboxEvent{})

	in := f.input()
	in.Items = append(in.Items, PlaceOrderItem{ProductID: uuid.NewString(), Quantity: 1, Price: "5"})
	_, err = f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	require.ErrorIs(t, err, ErrOrderCreationFailed)

	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.OrderItem{}))
	assert.Zero(t, f.count(t, &models.OrderStore{}))
	assert.Equal(t, outboxBefore, f.count(t, &models.OutboxEvent{}))
	assert.EqualValues(t, 1, f.count(t, &models.CartItem{}))
}

func TestPlaceOrderRollsBackOnMissingStore(t *testing.T) {
	f := newOrderFixture(t)
	in := f.input()
	in.StoreIDs = append(in.StoreIDs, uuid.NewString())

	_, err := f.svc.PlaceOrder(context.Background(), f.buyer.ID, in)
	require.ErrorIs(t, err, ErrOrderCreationFailed)
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestGetScopesByActor(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	placed, err := f.svc.PlaceOrder(ctx, f.buyer.ID, f.input())
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, Actor{UserID: f.buyer.ID, Role: enums.ActorRoleUser}, placed.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, f.p1.Name, got.Items[0].Product.Name)
	require.NotNil(t, got.User)
	assert.Equal(t, f.buyer.FirstName, got.User.FirstName)
	require.NotNil(t, got.SelectedAddress)
	assert.Equal(t, []uuid.UUID{f.store.ID}, got.StoreIDs)

	stranger := dbtest.SeedUser(t, f.conn)
	_, err = f.svc.Get(ctx, Actor{UserID: stranger.ID, Role: enums.ActorRoleUser}, placed.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.svc.Get(ctx, Actor{UserID: f.vendor.ID, Role: enums.ActorRoleVendor}, placed.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, Actor{UserID: stranger.ID, Role: enums.ActorRoleAdmin}, placed.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, Actor{UserID: f.buyer.ID, Role: enums.ActorRoleUser}, uuid.New())
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	placed, err := f.svc.PlaceOrder(ctx, f.buyer.ID, f.input())
	require.NoError(t, err)
	admin := Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}

	_, err = f.svc.UpdateStatus(ctx, admin, placed.ID, enums.OrderStatus("lost"))
	require.ErrorIs(t, err, ErrInvalidStatus)

	outsider := dbtest.SeedUser(t, f.conn)
	_, err = f.svc.UpdateStatus(ctx, Actor{UserID: outsider.ID, Role: enums.ActorRoleVendor}, placed.ID, enums.OrderStatusShipped)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	updated, err := f.svc.UpdateStatus(ctx, Actor{UserID: f.vendor.ID, Role: enums.ActorRoleVendor}, placed.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)

	// Any valid label may overwrite, including moving backwards.
	updated, err = f.svc.UpdateStatus(ctx, admin, placed.ID, enums.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, updated.Status)

	var changed int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderStatusChanged).Count(&changed).Error)
	assert.EqualValues(t, 2, changed)

	_, err = f.svc.UpdateStatus(ctx, admin, uuid.New(), enums.OrderStatusShipped)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	placed, err := f.svc.PlaceOrder(ctx, f.buyer.ID, f.input())
	require.NoError(t, err)
	admin := Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}

	require.NoError(t, f.svc.Delete(ctx, admin, placed.ID))
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.OrderItem{}))
	assert.Zero(t, f.count(t, &models.OrderStore{}))
	require.ErrorIs(t, f.svc.Delete(ctx, admin, placed.ID), ErrOrderNotFound)
}

func TestListings(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.PlaceOrder(ctx, f.buyer.ID, f.input())
		require.NoError(t, err)
	}
	otherStore := dbtest.SeedStore(t, f.conn, f.vendor.ID)
	in := f.input()
	in.StoreIDs = []string{otherStore.ID.String()}
	_, err := f.svc.PlaceOrder(ctx, f.buyer.ID, in)
	require.NoError(t, err)

	first, err := f.svc.ListByUser(ctx, f.buyer.ID, pagination.Params{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, first.Items, 3)
	require.NotEmpty(t, first.NextCursor)
	second, err := f.svc.ListByUser(ctx, f.buyer.ID, pagination.Params{Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Len(t, second.Items, 1)

	vendor := Actor{UserID: f.vendor.ID, Role: enums.ActorRoleVendor}
	byStore, err := f.svc.ListByStore(ctx, vendor, f.store.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, byStore.Items, 3)

	_, err = f.svc.ListByStore(ctx, Actor{UserID: f.buyer.ID, Role: enums.ActorRoleVendor}, f.store.ID, pagination.Params{})
	require.ErrorIs(t, err, ErrStoreNotFound)

	all, err := f.svc.List(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 4)

	_, err = f.svc.List(ctx, pagination.Params{Cursor: "not-a-cursor!"})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
