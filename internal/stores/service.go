package stores

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

const slugSuffixLen = 8

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes store operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[StoreDTO], error)
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]StoreDTO, error)
	Update(ctx context.Context, userID uuid.UUID, role enums.ActorRole, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	Delete(ctx context.Context, userID uuid.UUID, role enums.ActorRole, storeID uuid.UUID) error
}

type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Outbox eventEmitter
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox eventEmitter
	logg   *logger.Logger
}

// NewService builds a store service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("store repository required")
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
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		outbox: params.Outbox,
		logg:   params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	base := slug.Make(name)
	if base == "" {
		return nil, ErrInvalidName
	}

	store := &models.Store{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Name:             name,
		Description:      input.Description,
		Logo:             input.Logo,
		BannerImage:      input.BannerImage,
		ContactEmail:     input.ContactEmail,
		ContactPhone:     input.ContactPhone,
		Address:          input.Address,
		ThemeColor:       input.ThemeColor,
		Status:           enums.StoreStatusPending,
		ReturnPolicies:   toArray(input.ReturnPolicies),
		ShippingPolicies: toArray(input.ShippingPolicies),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		taken, err := r.SlugTaken(ctx, base)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check store slug")
		}
		store.Slug = base
		if taken {
			store.Slug = base + "-" + uuid.NewString()[:slugSuffixLen]
		}

		if err := r.Create(ctx, store); err != nil {
			if db.IsUniqueViolation(err, "stores_slug_key") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "store slug already taken")
			}
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "owner does not exist")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStoreCreated,
			AggregateType: enums.AggregateStore,
			AggregateID:   store.ID,
			Actor:         &outbox.ActorRef{UserID: ownerID, Role: string(enums.ActorRoleVendor)},
			Data: payloads.StoreCreatedEvent{
				StoreID: store.ID,
				OwnerID: ownerID,
				Slug:    store.Slug,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"store_id": store.ID.String(),
		"slug":     store.Slug,
	}), "stores.created")
	return FromModel(store), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[StoreDTO], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[StoreDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[StoreDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	return newStorePageDTO(page), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.NotFoundOr(err, ErrStoreNotFound, "load store")
	}
	return FromModel(store), nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]StoreDTO, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owner stores")
	}
	if len(rows) == 0 {
		return nil, ErrNoOwnedStores
	}
	return fromModels(rows), nil
}

// Update applies the non-nil fields. The slug is fixed at creation so that
// links to the storefront survive a rename.
func (s *service) Update(ctx context.Context, userID uuid.UUID, role enums.ActorRole, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	if input.Status != nil && role != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can change store status")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid store status")
	}

	var updated *models.Store
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		store, err := r.FindByID(ctx, storeID)
		if err != nil {
			return repo.NotFoundOr(err, ErrStoreNotFound, "load store")
		}
		if role != enums.ActorRoleAdmin && store.OwnerID != userID {
			return ErrNotStoreOwner
		}
		if err := applyUpdate(store, input); err != nil {
			return err
		}
		if err := r.Save(ctx, store); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
		}
		updated = store
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func applyUpdate(store *models.Store, input UpdateStoreInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
		}
		store.Name = name
	}
	if input.Description != nil {
		store.Description = cloneStringPtr(input.Description)
	}
	if input.Logo != nil {
		store.Logo = cloneStringPtr(input.Logo)
	}
	if input.BannerImage != nil {
		store.BannerImage = cloneStringPtr(input.BannerImage)
	}
	if input.ContactEmail != nil {
		store.ContactEmail = cloneStringPtr(input.ContactEmail)
	}
	if input.ContactPhone != nil {
		store.ContactPhone = cloneStringPtr(input.ContactPhone)
	}
	if input.Address != nil {
		store.Address = cloneStringPtr(input.Address)
	}
	if input.ThemeColor != nil {
		store.ThemeColor = cloneStringPtr(input.ThemeColor)
	}
	if input.Status != nil {
		store.Status = *input.Status
	}
	if input.ReturnPolicies != nil {
		store.ReturnPolicies = toArray(*input.ReturnPolicies)
	}
	if input.ShippingPolicies != nil {
		store.ShippingPolicies = toArray(*input.ShippingPolicies)
	}
	return nil
}

// Delete removes the store and its products. Stores referenced by orders
// cannot be deleted.
func (s *service) Delete(ctx context.Context, userID uuid.UUID, role enums.ActorRole, storeID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		store, err := r.FindByID(ctx, storeID)
		if err != nil {
			return repo.NotFoundOr(err, ErrStoreNotFound, "load store")
		}
		if role != enums.ActorRoleAdmin && store.OwnerID != userID {
			return ErrNotStoreOwner
		}
		n, err := r.Delete(ctx, storeID)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrStoreHasOrders.WithCause(err)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
		}
		if n == 0 {
			return ErrStoreNotFound
		}
		s.logg.Info(s.logg.WithField(ctx, "store_id", storeID.String()), "stores.deleted")
		return nil
	})
}

func toArray(values []string) pq.StringArray {
	out := pq.StringArray{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
