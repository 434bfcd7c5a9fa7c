// Package dbtest opens throwaway sqlite databases shaped like the Postgres
// schema so repositories can be tested without a server.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

var schema = []string{
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone_number TEXT,
  role TEXT NOT NULL DEFAULT 'user',
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL DEFAULT 'US',
  created_at DATETIME
)`,
	`CREATE TABLE stores (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES users(id),
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  logo TEXT,
  banner_image TEXT,
  contact_email TEXT,
  contact_phone TEXT,
  address TEXT,
  theme_color TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  return_policies TEXT,
  shipping_policies TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT stores_slug_key UNIQUE (slug)
)`,
	`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  thumbnail TEXT,
  price NUMERIC NOT NULL,
  shipping_fee NUMERIC,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  is_new BOOLEAN NOT NULL DEFAULT 1,
  rating NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE reviews (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  rating INTEGER NOT NULL,
  comment TEXT,
  created_at DATETIME,
  CONSTRAINT reviews_product_user_key UNIQUE (product_id, user_id)
)`,
	`CREATE TABLE carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  delivery_charge NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT carts_user_id_key UNIQUE (user_id)
)`,
	`CREATE TABLE cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  selected_color TEXT,
  selected_size TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT cart_items_cart_product_key UNIQUE (cart_id, product_id)
)`,
	`CREATE TABLE coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  description TEXT,
  discount_amount INTEGER NOT NULL,
  discount_type TEXT NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  store_id TEXT REFERENCES stores(id) ON DELETE CASCADE,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT coupons_code_key UNIQUE (code)
)`,
	`CREATE TABLE coupon_products (
  coupon_id TEXT NOT NULL REFERENCES coupons(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  PRIMARY KEY (coupon_id, product_id)
)`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  total_amount NUMERIC NOT NULL,
  selected_address_id TEXT NOT NULL REFERENCES addresses(id),
  selected_payment_method TEXT NOT NULL,
  order_comment TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  expected_delivery_date DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  price NUMERIC NOT NULL
)`,
	`CREATE TABLE order_stores (
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  store_id TEXT NOT NULL REFERENCES stores(id),
  PRIMARY KEY (order_id, store_id)
)`,
	`CREATE TABLE wishlist_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  created_at DATETIME,
  CONSTRAINT wishlist_items_user_product_key UNIQUE (user_id, product_id)
)`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
)`,
}

// Open returns an isolated in-memory database with foreign keys enforced.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func SeedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Email:     fmt.Sprintf("shopper_%s@example.com", uuid.NewString()),
		FirstName: "Ada",
		LastName:  "Shopper",
		Role:      enums.ActorRoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func SeedAddress(t *testing.T, db *gorm.DB, userID uuid.UUID) *models.Address {
	t.Helper()
	address := &models.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Line1:      "12 Market St",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78701",
		Country:    "US",
	}
	require.NoError(t, db.Create(address).Error)
	return address
}

func SeedStore(t *testing.T, db *gorm.DB, ownerID uuid.UUID) *models.Store {
	t.Helper()
	id := uuid.New()
	store := &models.Store{
		ID:      id,
		OwnerID: ownerID,
		Name:    "Corner Shop",
		Slug:    "corner-shop-" + id.String()[:8],
		Status:  enums.StoreStatusActive,
	}
	require.NoError(t, db.Create(store).Error)
	return store
}

// ProductOption customizes SeedProduct.
type ProductOption func(*models.Product)

func WithShippingFee(fee string) ProductOption {
	return func(p *models.Product) {
		p.ShippingFee = decimal.NewNullDecimal(decimal.RequireFromString(fee))
	}
}

func WithStock(qty int) ProductOption {
	return func(p *models.Product) { p.StockQuantity = qty }
}

func WithCreatedAt(at time.Time) ProductOption {
	return func(p *models.Product) { p.CreatedAt = at }
}

func SeedProduct(t *testing.T, db *gorm.DB, storeID uuid.UUID, price string, opts ...ProductOption) *models.Product {
	t.Helper()
	id := uuid.New()
	product := &models.Product{
		ID:            id,
		StoreID:       storeID,
		Name:          "Widget " + id.String()[:4],
		Slug:          "widget-" + id.String()[:8],
		Price:         decimal.RequireFromString(price),
		StockQuantity: 10,
		IsNew:         true,
	}
	for _, opt := range opts {
		opt(product)
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
