package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

// Repository persists product listings and their reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) (pagination.Page[models.Product], error)
	Search(ctx context.Context, filter SearchFilter, params pagination.Params) (pagination.Page[models.Product], error)
	ClearNewFlags(ctx context.Context, createdBefore time.Time) (int64, error)
	FindStore(ctx context.Context, storeID uuid.UUID) (*models.Store, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	SetRating(ctx context.Context, productID uuid.UUID, rating decimal.Decimal) error

	CreateReview(ctx context.Context, review *models.Review) error
	FindReview(ctx context.Context, id uuid.UUID) (*models.Review, error)
	DeleteReview(ctx context.Context, id uuid.UUID) (int64, error)
	ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[models.Review], error)
	Ratings(ctx context.Context, productID uuid.UUID) ([]int, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

// FindByID loads the product without associations.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindForUpdate loads the product and locks its row until the transaction
// ends. Review writes serialize on it.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.ForUpdate(r.DB(ctx)).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs returns the products that exist among ids, in no particular order.
func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByStore pages a store's products newest first.
func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) (pagination.Page[models.Product], error) {
	query := r.DB(ctx).Where("store_id = ?", storeID)
	return pagination.Keyset(query, "", params, productCursor)
}

// Search pages the catalog newest first. Query matches a case-insensitive
// substring of the name.
func (r *repository) Search(ctx context.Context, filter SearchFilter, params pagination.Params) (pagination.Page[models.Product], error) {
	query := r.DB(ctx).Model(&models.Product{})
	if filter.Query != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(filter.Query))+"%")
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.IsNew != nil {
		query = query.Where("is_new = ?", *filter.IsNew)
	}
	return pagination.Keyset(query, "", params, productCursor)
}

func productCursor(p models.Product) pagination.Cursor {
	return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ClearNewFlags unsets is_new on products created before the cutoff.
func (r *repository) ClearNewFlags(ctx context.Context, createdBefore time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("is_new = ? AND created_at < ?", true, createdBefore.UTC()).
		Update("is_new", false)
	return res.RowsAffected, res.Error
}

func (r *repository) FindStore(ctx context.Context, storeID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).First(&store, "id = ?", storeID).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

// Save persists every column of the provided product.
func (r *repository) Save(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Save(product).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *repository) SetRating(ctx context.Context, productID uuid.UUID, rating decimal.Decimal) error {
	return r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("rating", rating).Error
}

func (r *repository) CreateReview(ctx context.Context, review *models.Review) error {
	return r.DB(ctx).Create(review).Error
}

func (r *repository) FindReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.DB(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) DeleteReview(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Delete(&models.Review{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// ListReviews pages a product's reviews newest first with their authors.
func (r *repository) ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[models.Review], error) {
	query := r.DB(ctx).Preload("User").Where("product_id = ?", productID)
	return pagination.Keyset(query, "", params, func(rv models.Review) pagination.Cursor {
		return pagination.Cursor{CreatedAt: rv.CreatedAt, ID: rv.ID}
	})
}

// Ratings returns every rating left on the product.
func (r *repository) Ratings(ctx context.Context, productID uuid.UUID) ([]int, error) {
	var ratings []int
	err := r.DB(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Pluck("rating", &ratings).Error
	return ratings, err
}
