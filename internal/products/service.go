package products

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

const (
	slugSuffixLen  = 8
	maxNameLen     = 200
	maxSearchQuery = 100
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the catalog: reads, vendor writes, reviews and the
// freshness maintenance used by cron.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) (pagination.Page[ProductDTO], error)
	Search(ctx context.Context, filter SearchFilter, params pagination.Params) (pagination.Page[ProductDTO], error)
	ClearNewFlags(ctx context.Context, createdBefore time.Time) (int64, error)

	Create(ctx context.Context, userID uuid.UUID, role enums.ActorRole, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, userID uuid.UUID, role enums.ActorRole, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, userID uuid.UUID, role enums.ActorRole, productID uuid.UUID) error

	CreateReview(ctx context.Context, userID, productID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
	ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[ReviewDTO], error)
	DeleteReview(ctx context.Context, userID uuid.UUID, role enums.ActorRole, reviewID uuid.UUID) error
}

type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Logger *logger.Logger
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: params.Repo, tx: params.Tx, logg: params.Logger}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.NotFoundOr(err, ErrProductNotFound, "load product")
	}
	return NewProductDTO(product), nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) (pagination.Page[ProductDTO], error) {
	if storeID == uuid.Nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.ListByStore(ctx, storeID, params)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return NewProductPageDTO(page), nil
}

// Search returns an empty page, not an error, when nothing matches.
func (s *service) Search(ctx context.Context, filter SearchFilter, params pagination.Params) (pagination.Page[ProductDTO], error) {
	filter.Query = strings.TrimSpace(filter.Query)
	if len(filter.Query) > maxSearchQuery {
		return pagination.Page[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("search must be at most %d characters", maxSearchQuery))
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return pagination.Page[ProductDTO]{}, ErrInvalidPriceRange
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.Search(ctx, filter, params)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return NewProductPageDTO(page), nil
}

// ClearNewFlags is invoked by the product_freshness cron job.
func (s *service) ClearNewFlags(ctx context.Context, createdBefore time.Time) (int64, error) {
	n, err := s.repo.ClearNewFlags(ctx, createdBefore)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear new flags")
	}
	return n, nil
}

// Create lists a product in a store the caller owns. Admins may list into
// any store.
func (s *service) Create(ctx context.Context, userID uuid.UUID, role enums.ActorRole, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fieldError("name", "product name is required")
	}
	if len(name) > maxNameLen {
		return nil, fieldError("name", fmt.Sprintf("product name must be at most %d characters", maxNameLen))
	}
	base := slug.Make(name)
	if base == "" {
		return nil, ErrInvalidName
	}
	storeID, err := parseStoreID(input.StoreID)
	if err != nil {
		return nil, err
	}
	price, err := parseMoney("price", input.Price)
	if err != nil {
		return nil, err
	}
	if input.StockQuantity < 0 {
		return nil, fieldError("stockQuantity", "stock quantity must not be negative")
	}

	product := &models.Product{
		ID:            uuid.New(),
		StoreID:       storeID,
		Name:          name,
		Thumbnail:     trimmed(input.Thumbnail),
		Price:         price,
		StockQuantity: input.StockQuantity,
		IsNew:         true,
	}
	if input.ShippingFee != nil {
		if product.ShippingFee, err = parseFee(*input.ShippingFee); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		if err := s.authorizeStore(ctx, r, userID, role, storeID); err != nil {
			return err
		}
		taken, err := r.SlugTaken(ctx, base)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product slug")
		}
		product.Slug = base
		if taken {
			product.Slug = base + "-" + uuid.NewString()[:slugSuffixLen]
		}
		if err := r.Create(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"product_id": product.ID.String(),
		"store_id":   product.StoreID.String(),
	}), "products.created")
	return NewProductDTO(product), nil
}

// Update applies the non-nil fields. The slug and the owning store are fixed
// at creation.
func (s *service) Update(ctx context.Context, userID uuid.UUID, role enums.ActorRole, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		product, err := r.FindForUpdate(ctx, productID)
		if err != nil {
			return repo.NotFoundOr(err, ErrProductNotFound, "load product")
		}
		if err := s.authorizeStore(ctx, r, userID, role, product.StoreID); err != nil {
			return err
		}
		if err := applyUpdate(product, input); err != nil {
			return err
		}
		if err := r.Save(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewProductDTO(updated), nil
}

func applyUpdate(product *models.Product, input UpdateProductInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return fieldError("name", "product name is required")
		}
		if len(name) > maxNameLen {
			return fieldError("name", fmt.Sprintf("product name must be at most %d characters", maxNameLen))
		}
		product.Name = name
	}
	if input.Thumbnail != nil {
		product.Thumbnail = trimmed(input.Thumbnail)
	}
	if input.Price != nil {
		price, err := parseMoney("price", *input.Price)
		if err != nil {
			return err
		}
		product.Price = price
	}
	if input.ShippingFee != nil {
		fee, err := parseFee(*input.ShippingFee)
		if err != nil {
			return err
		}
		product.ShippingFee = fee
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return fieldError("stockQuantity", "stock quantity must not be negative")
		}
		product.StockQuantity = *input.StockQuantity
	}
	return nil
}

// Delete removes the listing along with cart, wishlist and coupon links.
// Products already sold cannot be deleted; order items keep their snapshot.
func (s *service) Delete(ctx context.Context, userID uuid.UUID, role enums.ActorRole, productID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		product, err := r.FindByID(ctx, productID)
		if err != nil {
			return repo.NotFoundOr(err, ErrProductNotFound, "load product")
		}
		if err := s.authorizeStore(ctx, r, userID, role, product.StoreID); err != nil {
			return err
		}
		n, err := r.Delete(ctx, productID)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrProductHasOrders.WithCause(err)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		if n == 0 {
			return ErrProductNotFound
		}
		s.logg.Info(s.logg.WithField(ctx, "product_id", productID.String()), "products.deleted")
		return nil
	})
}

func (s *service) authorizeStore(ctx context.Context, r Repository, userID uuid.UUID, role enums.ActorRole, storeID uuid.UUID) error {
	store, err := r.FindStore(ctx, storeID)
	if err != nil {
		return repo.NotFoundOr(err, ErrStoreNotFound, "load store")
	}
	if role != enums.ActorRoleAdmin && store.OwnerID != userID {
		return ErrNotStoreOwner
	}
	return nil
}

func parseStoreID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fieldError("storeId", "store id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fieldError("storeId", "store id must be a valid UUID")
	}
	return id, nil
}

// parseMoney reads a non-negative amount rounded to cents.
func parseMoney(field, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fieldError(field, field+" must be a decimal number")
	}
	amount = amount.Round(2)
	if amount.IsNegative() {
		return decimal.Decimal{}, fieldError(field, field+" must not be negative")
	}
	return amount, nil
}

// parseFee maps a blank fee to NULL so the cart's flat delivery charge applies.
func parseFee(raw string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}, nil
	}
	fee, err := parseMoney("shippingFee", raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(fee), nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func fieldError(field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": field})
}
