package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/internal/wishlist"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

type stubWishlistService struct {
	err       error
	added     uuid.UUID
	removed   uuid.UUID
	listedFor uuid.UUID
}

func (s *stubWishlistService) List(ctx context.Context, userID uuid.UUID) (*wishlist.WishlistDTO, error) {
	s.listedFor = userID
	return &wishlist.WishlistDTO{Items: []wishlist.WishlistItemDTO{}}, s.err
}

func (s *stubWishlistService) Add(ctx context.Context, userID, productID uuid.UUID) (*wishlist.WishlistItemDTO, error) {
	s.added = productID
	return &wishlist.WishlistItemDTO{ID: uuid.New(), ProductID: productID}, s.err
}

func (s *stubWishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	s.removed = productID
	return s.err
}

func TestWishlistFlow(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &stubWishlistService{}

	rec := httptest.NewRecorder()
	WishlistAdd(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/wishlist", `{"productId":"`+productID.String()+`"}`, userID, enums.ActorRoleUser, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.added != productID {
		t.Fatalf("expected %s got %s", productID, svc.added)
	}

	rec = httptest.NewRecorder()
	WishlistList(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/wishlist", "", userID, enums.ActorRoleUser, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.listedFor != userID {
		t.Fatalf("expected list for %s", userID)
	}

	rec = httptest.NewRecorder()
	req := newRequest(http.MethodDelete, "/api/v1/wishlist/"+productID.String(), "", userID, enums.ActorRoleUser, map[string]string{"productId": productID.String()})
	WishlistRemove(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if svc.removed != productID {
		t.Fatalf("expected remove of %s", productID)
	}
}

func TestWishlistAddUnknownProduct(t *testing.T) {
	svc := &stubWishlistService{err: wishlist.ErrProductNotFound}
	rec := httptest.NewRecorder()
	WishlistAdd(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/wishlist", `{"productId":"`+uuid.NewString()+`"}`, uuid.New(), enums.ActorRoleUser, nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
