package coupons

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
)

const uniqueCouponCode = "coupons_code_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service validates coupon codes against carts and manages the coupon
// catalog. Every read sweeps expired coupons first.
type Service interface {
	SweepExpired(ctx context.Context) (int64, error)
	ValidateForUser(ctx context.Context, code string, userID uuid.UUID) (*CouponDTO, error)
	Create(ctx context.Context, input CouponInput) (*CouponDTO, error)
	List(ctx context.Context) ([]CouponDTO, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]CouponDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CouponDTO, error)
	Update(ctx context.Context, id uuid.UUID, input CouponInput) (*CouponDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Logger  *logger.Logger
	Metrics *metrics.DomainMetrics
	Now     func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.DomainMetrics
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "coupon repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (s *service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.SweepExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire coupons")
	}
	if n > 0 {
		s.logg.Info(s.logg.WithField(ctx, "expired", n), "coupons.swept")
	}
	return n, nil
}

// ValidateForUser checks, in order: the code exists, the cart has items, the
// cart overlaps the coupon's products (when it has any), the coupon is not
// inactive, and the coupon has not expired. The first failing check wins.
func (s *service) ValidateForUser(ctx context.Context, code string, userID uuid.UUID) (*CouponDTO, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if _, err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, s.reject(repo.NotFoundOr(err, ErrCouponNotFound, "load coupon"))
	}

	cartProducts, err := s.repo.CartProductIDs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	if len(cartProducts) == 0 {
		return nil, s.reject(ErrCartEmpty)
	}

	if len(coupon.Products) > 0 && !overlaps(coupon.Products, cartProducts) {
		return nil, s.reject(ErrCouponNotApplicable)
	}
	if coupon.Status == enums.CouponStatusInactive {
		return nil, s.reject(ErrCouponInactive)
	}
	if coupon.Status == enums.CouponStatusExpired || coupon.EndDate.Before(s.now()) {
		return nil, s.reject(ErrCouponExpired)
	}
	return NewCouponDTO(coupon), nil
}

func (s *service) reject(err error) error {
	if typed := pkgerrors.As(err); typed != nil && typed.Reason() != "" {
		s.metrics.IncCouponRejected(strings.ToLower(string(typed.Reason())))
	}
	return err
}

func overlaps(eligible []models.Product, cart []uuid.UUID) bool {
	inCart := make(map[uuid.UUID]struct{}, len(cart))
	for _, id := range cart {
		inCart[id] = struct{}{}
	}
	for _, p := range eligible {
		if _, ok := inCart[p.ID]; ok {
			return true
		}
	}
	return false
}

func (s *service) Create(ctx context.Context, input CouponInput) (*CouponDTO, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{
		ID:             uuid.New(),
		Code:           input.Code,
		Description:    input.Description,
		DiscountAmount: input.DiscountAmount,
		DiscountType:   input.DiscountType,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		Status:         input.Status,
		StoreID:        input.StoreID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		if err := s.ensureCodeFree(ctx, r, input.Code, uuid.Nil); err != nil {
			return err
		}
		if err := ensureProducts(ctx, r, input.ProductIDs); err != nil {
			return err
		}
		if err := r.Create(ctx, coupon); err != nil {
			if db.IsUniqueViolation(err, uniqueCouponCode) {
				return ErrCouponCodeTaken
			}
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.New(pkgerrors.CodeValidation, "store does not exist")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
		}
		if err := r.ReplaceProducts(ctx, coupon.ID, input.ProductIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link coupon products")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, coupon.ID)
}

func (s *service) List(ctx context.Context) ([]CouponDTO, error) {
	if _, err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return newCouponDTOs(rows), nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID) ([]CouponDTO, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if _, err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store coupons")
	}
	if len(rows) == 0 {
		return nil, ErrNoStoreCoupons
	}
	return newCouponDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CouponDTO, error) {
	if _, err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.NotFoundOr(err, ErrCouponNotFound, "load coupon")
	}
	return NewCouponDTO(coupon), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input CouponInput) (*CouponDTO, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		existing, err := r.FindByID(ctx, id)
		if err != nil {
			return repo.NotFoundOr(err, ErrCouponNotFound, "load coupon")
		}
		if err := s.ensureCodeFree(ctx, r, input.Code, existing.ID); err != nil {
			return err
		}
		if err := ensureProducts(ctx, r, input.ProductIDs); err != nil {
			return err
		}

		existing.Code = input.Code
		existing.Description = input.Description
		existing.DiscountAmount = input.DiscountAmount
		existing.DiscountType = input.DiscountType
		existing.StartDate = input.StartDate
		existing.EndDate = input.EndDate
		existing.Status = input.Status
		if err := r.Update(ctx, existing); err != nil {
			if db.IsUniqueViolation(err, uniqueCouponCode) {
				return ErrCouponCodeTaken
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
		}
		if err := r.ReplaceProducts(ctx, existing.ID, input.ProductIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link coupon products")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	if n == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (s *service) ensureCodeFree(ctx context.Context, r Repository, code string, excludeID uuid.UUID) error {
	taken, err := r.CodeTaken(ctx, code, excludeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check coupon code")
	}
	if taken {
		return ErrCouponCodeTaken
	}
	return nil
}

func ensureProducts(ctx context.Context, r Repository, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := r.CountProducts(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check coupon products")
	}
	if count != int64(len(ids)) {
		return ErrUnknownProducts
	}
	return nil
}

func normalizeInput(input *CouponInput) error {
	input.Code = strings.TrimSpace(input.Code)
	if input.Code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if input.DiscountAmount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount amount must be greater than zero")
	}
	if !input.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount type must be percentage or fixed")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.DiscountAmount > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if input.Status == "" {
		input.Status = enums.CouponStatusActive
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon status")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end dates are required")
	}
	if !input.EndDate.After(input.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	input.StartDate = input.StartDate.UTC()
	input.EndDate = input.EndDate.UTC()
	input.ProductIDs = dedupe(input.ProductIDs)
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
