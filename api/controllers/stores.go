package controllers

import (
	"net/http"

	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/stores"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type storeCreateRequest struct {
	Name             string   `json:"name" validate:"required,max=120"`
	Description      *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Logo             *string  `json:"logo,omitempty" validate:"omitempty,url"`
	BannerImage      *string  `json:"bannerImage,omitempty" validate:"omitempty,url"`
	ContactEmail     *string  `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone     *string  `json:"contactPhone,omitempty" validate:"omitempty,max=32"`
	Address          *string  `json:"address,omitempty" validate:"omitempty,max=500"`
	ThemeColor       *string  `json:"themeColor,omitempty" validate:"omitempty,max=32"`
	ReturnPolicies   []string `json:"returnPolicies,omitempty" validate:"omitempty,dive,max=500"`
	ShippingPolicies []string `json:"shippingPolicies,omitempty" validate:"omitempty,dive,max=500"`
}

func (r storeCreateRequest) toInput() stores.CreateStoreInput {
	return stores.CreateStoreInput{
		Name:             validators.SanitizeString(r.Name, 120),
		Description:      r.Description,
		Logo:             r.Logo,
		BannerImage:      r.BannerImage,
		ContactEmail:     r.ContactEmail,
		ContactPhone:     r.ContactPhone,
		Address:          r.Address,
		ThemeColor:       r.ThemeColor,
		ReturnPolicies:   r.ReturnPolicies,
		ShippingPolicies: r.ShippingPolicies,
	}
}

// storeUpdateRequest carries the mutable store fields; omitted fields are left as is.
type storeUpdateRequest struct {
	Name             *string            `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description      *string            `json:"description,omitempty" validate:"omitempty,max=2000"`
	Logo             *string            `json:"logo,omitempty" validate:"omitempty,url"`
	BannerImage      *string            `json:"bannerImage,omitempty" validate:"omitempty,url"`
	ContactEmail     *string            `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone     *string            `json:"contactPhone,omitempty" validate:"omitempty,max=32"`
	Address          *string            `json:"address,omitempty" validate:"omitempty,max=500"`
	ThemeColor       *string            `json:"themeColor,omitempty" validate:"omitempty,max=32"`
	Status           *enums.StoreStatus `json:"status,omitempty" validate:"omitempty,oneof=pending active suspended"`
	ReturnPolicies   *[]string          `json:"returnPolicies,omitempty"`
	ShippingPolicies *[]string          `json:"shippingPolicies,omitempty"`
}

func (r storeUpdateRequest) toInput() stores.UpdateStoreInput {
	return stores.UpdateStoreInput{
		Name:             r.Name,
		Description:      r.Description,
		Logo:             r.Logo,
		BannerImage:      r.BannerImage,
		ContactEmail:     r.ContactEmail,
		ContactPhone:     r.ContactPhone,
		Address:          r.Address,
		ThemeColor:       r.ThemeColor,
		Status:           r.Status,
		ReturnPolicies:   r.ReturnPolicies,
		ShippingPolicies: r.ShippingPolicies,
	}
}

// StoreCreate registers a store owned by the caller.
func StoreCreate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		userID, _, err := middleware.RequireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload storeCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Create(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, store)
	}
}

func StoreList(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// StoreListMine returns the caller's stores, oldest first.
func StoreListMine(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := middleware.RequireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByOwner(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func StoreGet(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := validators.URLParamUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.GetByID(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// StoreUpdate applies a partial update. Only the owner or an admin may edit,
// and only an admin may change the status.
func StoreUpdate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := middleware.RequireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := validators.URLParamUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload storeUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Update(r.Context(), userID, role, storeID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

func StoreDelete(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := middleware.RequireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := validators.URLParamUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, role, storeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
