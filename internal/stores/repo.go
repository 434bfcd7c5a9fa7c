package stores

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

// Repository handles store persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[models.Store], error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	Save(ctx context.Context, store *models.Store) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, store *models.Store) error {
	return r.DB(ctx).Create(store).Error
}

// FindByID loads a store by its UUID.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) (pagination.Page[models.Store], error) {
	return pagination.Keyset(r.DB(ctx).Model(&models.Store{}), "", params, func(s models.Store) pagination.Cursor {
		return pagination.Cursor{CreatedAt: s.CreatedAt, ID: s.ID}
	})
}

// ListByOwner returns all stores owned by the provided user, oldest first.
func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error) {
	var stores []models.Store
	if err := r.DB(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *repository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Store{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// Save persists every column of the provided store.
func (r *repository) Save(ctx context.Context, store *models.Store) error {
	return r.DB(ctx).Save(store).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Store{})
	return res.RowsAffected, res.Error
}
