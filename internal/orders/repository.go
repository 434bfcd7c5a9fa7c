package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	LinkStores(ctx context.Context, orderID uuid.UUID, storeIDs []uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Order], error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	StoreOwnedBy(ctx context.Context, storeID, ownerID uuid.UUID) (bool, error)
	OrderHasStoreOwnedBy(ctx context.Context, orderID, ownerID uuid.UUID) (bool, error)
}

// ListFilter narrows order listings. Zero values match everything.
type ListFilter struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.DB(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	return r.DB(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *repository) LinkStores(ctx context.Context, orderID uuid.UUID, storeIDs []uuid.UUID) error {
	if len(storeIDs) == 0 {
		return nil
	}
	rows := make([]models.OrderStore, 0, len(storeIDs))
	for _, id := range storeIDs {
		rows = append(rows, models.OrderStore{OrderID: orderID, StoreID: id})
	}
	return r.DB(ctx).Create(&rows).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDetail loads the order with items, products, address, buyer and stores.
func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.Product").
		Preload("SelectedAddress").
		Preload("User").
		Preload("Stores").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List pages orders newest first.
func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Order], error) {
	query := r.DB(ctx).Model(&models.Order{}).
		Preload("Items.Product").
		Preload("SelectedAddress")
	if filter.UserID != uuid.Nil {
		query = query.Where("orders.user_id = ?", filter.UserID)
	}
	if filter.StoreID != uuid.Nil {
		query = query.Where("EXISTS (SELECT 1 FROM order_stores os WHERE os.order_id = orders.id AND os.store_id = ?)", filter.StoreID)
	}
	return pagination.Keyset(query, "orders", params, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Order{})
	return res.RowsAffected, res.Error
}

func (r *repository) StoreOwnedBy(ctx context.Context, storeID, ownerID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Store{}).
		Where("id = ? AND owner_id = ?", storeID, ownerID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) OrderHasStoreOwnedBy(ctx context.Context, orderID, ownerID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.OrderStore{}).
		Joins("JOIN stores ON stores.id = order_stores.store_id").
		Where("order_stores.order_id = ? AND stores.owner_id = ?", orderID, ownerID).
		Count(&count).Error
	return count > 0, err
}
