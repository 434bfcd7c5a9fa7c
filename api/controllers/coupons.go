package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/coupons"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

// couponRequest is shared by create and full update. Business rules (positive
// amount, percentage cap, date order) are enforced by the coupon service.
type couponRequest struct {
	Code           string                  `json:"code" validate:"required,max=64"`
	Description    *string                 `json:"description,omitempty" validate:"omitempty,max=500"`
	DiscountAmount validators.NumberString `json:"discountAmount"`
	DiscountType   enums.DiscountType      `json:"discountType"`
	StartDate      time.Time               `json:"startDate"`
	EndDate        time.Time               `json:"endDate"`
	Status         enums.CouponStatus      `json:"status,omitempty"`
	StoreID        *uuid.UUID              `json:"storeId,omitempty"`
	ProductIDs     []uuid.UUID             `json:"productIds,omitempty"`
}

func (r couponRequest) toInput() (coupons.CouponInput, error) {
	amount := 0
	if raw := r.DiscountAmount.String(); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return coupons.CouponInput{}, pkgerrors.New(pkgerrors.CodeValidation, "discount amount must be a whole number").
				WithDetails(map[string]any{"field": "discountAmount"})
		}
		amount = parsed
	}
	return coupons.CouponInput{
		Code:           strings.TrimSpace(r.Code),
		Description:    r.Description,
		DiscountAmount: amount,
		DiscountType:   r.DiscountType,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		Status:         r.Status,
		StoreID:        r.StoreID,
		ProductIDs:     r.ProductIDs,
	}, nil
}

func decodeCoupon(r *http.Request) (coupons.CouponInput, error) {
	var payload couponRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return coupons.CouponInput{}, err
	}
	return payload.toInput()
}

func CouponCreate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := decodeCoupon(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func CouponList(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CouponGet(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := validators.URLParamUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Get(r.Context(), couponID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

// CouponValidate checks a code against the caller's cart and returns the
// coupon when it applies.
func CouponValidate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := middleware.RequireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		coupon, err := svc.ValidateForUser(r.Context(), code, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

func CouponListByStore(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := validators.URLParamUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByStore(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CouponUpdate replaces every coupon field, including the product set.
func CouponUpdate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := validators.URLParamUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := decodeCoupon(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Update(r.Context(), couponID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

func CouponDelete(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := validators.URLParamUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
