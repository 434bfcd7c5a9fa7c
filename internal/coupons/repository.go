package coupons

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// Repository defines coupon persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	CodeTaken(ctx context.Context, code string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context) ([]models.Coupon, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Update(ctx context.Context, coupon *models.Coupon) error
	ReplaceProducts(ctx context.Context, couponID uuid.UUID, productIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	CountProducts(ctx context.Context, productIDs []uuid.UUID) (int64, error)
	CartProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
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

// SweepExpired moves every coupon past its end date to expired. Running it
// twice changes nothing the second time.
func (r *repository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Coupon{}).
		Where("end_date < ? AND status <> ?", now.UTC(), enums.CouponStatusExpired).
		Update("status", enums.CouponStatusExpired)
	return res.RowsAffected, res.Error
}

func (r *repository) withProducts(ctx context.Context) *gorm.DB {
	return r.DB(ctx).Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Order("products.name ASC")
	})
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.withProducts(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.withProducts(ctx).First(&coupon, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) CodeTaken(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	query := r.DB(ctx).Model(&models.Coupon{}).Where("code = ?", code)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) List(ctx context.Context) ([]models.Coupon, error) {
	var rows []models.Coupon
	if err := r.withProducts(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Coupon, error) {
	var rows []models.Coupon
	if err := r.withProducts(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	return r.DB(ctx).Omit(clause.Associations).Create(coupon).Error
}

func (r *repository) Update(ctx context.Context, coupon *models.Coupon) error {
	return r.DB(ctx).
		Model(&models.Coupon{ID: coupon.ID}).
		Select("code", "description", "discount_amount", "discount_type", "start_date", "end_date", "status").
		Updates(coupon).Error
}

// ReplaceProducts swaps the coupon's eligible product set for productIDs.
func (r *repository) ReplaceProducts(ctx context.Context, couponID uuid.UUID, productIDs []uuid.UUID) error {
	db := r.DB(ctx)
	if err := db.Where("coupon_id = ?", couponID).Delete(&models.CouponProduct{}).Error; err != nil {
		return err
	}
	if len(productIDs) == 0 {
		return nil
	}
	rows := make([]models.CouponProduct, 0, len(productIDs))
	for _, id := range productIDs {
		rows = append(rows, models.CouponProduct{CouponID: couponID, ProductID: id})
	}
	return db.Create(&rows).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Coupon{})
	return res.RowsAffected, res.Error
}

func (r *repository) CountProducts(ctx context.Context, productIDs []uuid.UUID) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("id IN ?", productIDs).Count(&count).Error
	return count, err
}

// CartProductIDs lists the products in the user's cart. A missing cart
// yields an empty list.
func (r *repository) CartProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Pluck("cart_items.product_id", &ids).Error
	return ids, err
}
