package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	cartsvc "github.com/angelmondragon/shopfront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

// result is what a cart action hands back: a status and an optional body.
// A nil body with 204 writes no content.
type result struct {
	status int
	body   any
}

func noContent() (result, error) { return result{status: http.StatusNoContent}, nil }

// forUser resolves the authenticated caller and runs act, writing whatever it
// returns. Every cart route is scoped to the caller's own cart.
func forUser(svc cartsvc.Service, logg *logger.Logger, act func(r *http.Request, userID uuid.UUID) (result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, _, err := middleware.RequireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := act(r, userID)
		switch {
		case err != nil:
			responses.WriteError(r.Context(), logg, w, err)
		case res.status == http.StatusNoContent:
			responses.WriteNoContent(w)
		default:
			responses.WriteSuccessStatus(w, res.status, res.body)
		}
	}
}

// CartFetch returns the caller's cart with freshly computed totals.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return forUser(svc, logg, func(r *http.Request, userID uuid.UUID) (result, error) {
		snapshot, err := svc.GetSnapshot(r.Context(), userID)
		return result{http.StatusOK, snapshot}, err
	})
}

// CartAddItem adds one product line, creating the cart on first use.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return forUser(svc, logg, func(r *http.Request, userID uuid.UUID) (result, error) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return result{}, err
		}
		item, err := svc.AddItem(r.Context(), userID, payload.toInput())
		return result{http.StatusCreated, item}, err
	})
}

func CartUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return forUser(svc, logg, func(r *http.Request, userID uuid.UUID) (result, error) {
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return result{}, err
		}
		item, err := svc.UpdateQuantity(r.Context(), userID, payload.ProductID, payload.Quantity)
		return result{http.StatusOK, item}, err
	})
}

// CartRemoveItem takes the product id in the request body.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return forUser(svc, logg, func(r *http.Request, userID uuid.UUID) (result, error) {
		var payload removeItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return result{}, err
		}
		if err := svc.RemoveItem(r.Context(), userID, payload.ProductID); err != nil {
			return result{}, err
		}
		return noContent()
	})
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return forUser(svc, logg, func(r *http.Request, userID uuid.UUID) (result, error) {
		if err := svc.Clear(r.Context(), userID); err != nil {
			return result{}, err
		}
		return noContent()
	})
}

// CartCount answers the badge counter; a user without a cart gets zero.
func CartCount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return forUser(svc, logg, func(r *http.Request, userID uuid.UUID) (result, error) {
		count, err := svc.GetCount(r.Context(), userID)
		return result{http.StatusOK, cartsvc.CountDTO{Count: count}}, err
	})
}
