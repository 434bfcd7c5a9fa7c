package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/internal/stores"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

type stubStoreService struct {
	dto        *stores.StoreDTO
	list       []stores.StoreDTO
	page       pagination.Page[stores.StoreDTO]
	err        error
	owner      uuid.UUID
	role       enums.ActorRole
	created    stores.CreateStoreInput
	updated    stores.UpdateStoreInput
	deletedID  uuid.UUID
	createCall int
}

func (s *stubStoreService) Create(ctx context.Context, ownerID uuid.UUID, input stores.CreateStoreInput) (*stores.StoreDTO, error) {
	s.createCall++
	s.owner = ownerID
	s.created = input
	return s.dto, s.err
}

func (s *stubStoreService) List(ctx context.Context, params pagination.Params) (pagination.Page[stores.StoreDTO], error) {
	return s.page, s.err
}

func (s *stubStoreService) GetByID(ctx context.Context, id uuid.UUID) (*stores.StoreDTO, error) {
	return s.dto, s.err
}

func (s *stubStoreService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]stores.StoreDTO, error) {
	s.owner = ownerID
	return s.list, s.err
}

func (s *stubStoreService) Update(ctx context.Context, userID uuid.UUID, role enums.ActorRole, storeID uuid.UUID, input stores.UpdateStoreInput) (*stores.StoreDTO, error) {
	s.owner = userID
	s.role = role
	s.updated = input
	return s.dto, s.err
}

func (s *stubStoreService) Delete(ctx context.Context, userID uuid.UUID, role enums.ActorRole, storeID uuid.UUID) error {
	s.role = role
	s.deletedID = storeID
	return s.err
}

func sampleStore() *stores.StoreDTO {
	return &stores.StoreDTO{
		ID:               uuid.New(),
		OwnerID:          uuid.New(),
		Name:             "Corner Shop",
		Slug:             "corner-shop",
		Status:           enums.StoreStatusPending,
		ReturnPolicies:   []string{},
		ShippingPolicies: []string{},
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

func TestStoreCreate(t *testing.T) {
	userID := uuid.New()
	svc := &stubStoreService{dto: sampleStore()}
	body := `{"name":"  Corner Shop ","contactEmail":"shop@example.com","returnPolicies":["30 days"]}`

	rec := httptest.NewRecorder()
	StoreCreate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/stores", body, userID, enums.ActorRoleVendor, nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.owner != userID {
		t.Fatalf("expected owner %s got %s", userID, svc.owner)
	}
	if svc.created.Name != "Corner Shop" {
		t.Fatalf("expected trimmed name got %q", svc.created.Name)
	}
	if len(svc.created.ReturnPolicies) != 1 {
		t.Fatalf("expected return policies to be forwarded")
	}

	var envelope struct {
		Data stores.StoreDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Slug != "corner-shop" {
		t.Fatalf("unexpected slug %q", envelope.Data.Slug)
	}
}

func TestStoreCreateValidation(t *testing.T) {
	cases := map[string]string{
		"missing name":  `{"description":"x"}`,
		"bad email":     `{"name":"Shop","contactEmail":"nope"}`,
		"unknown field": `{"name":"Shop","slug":"custom"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubStoreService{dto: sampleStore()}
			rec := httptest.NewRecorder()
			StoreCreate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/stores", body, uuid.New(), enums.ActorRoleVendor, nil))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rec.Code)
			}
			if svc.createCall != 0 {
				t.Fatalf("service should not be called")
			}
			var envelope types.ErrorEnvelope
			if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if envelope.Error.Code != "VALIDATION_ERROR" {
				t.Fatalf("unexpected code %q", envelope.Error.Code)
			}
		})
	}
}

func TestStoreCreateRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	StoreCreate(&stubStoreService{}, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/stores", `{"name":"Shop"}`, uuid.Nil, "", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	id := uuid.New()
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodGet, "/api/v1/stores/"+id.String(), "", uuid.New(), enums.ActorRoleUser, map[string]string{"storeId": id.String()})
	StoreGet(&stubStoreService{err: stores.ErrStoreNotFound}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestStoreListMineNoStores(t *testing.T) {
	rec := httptest.NewRecorder()
	StoreListMine(&stubStoreService{err: stores.ErrNoOwnedStores}, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/stores/user", "", uuid.New(), enums.ActorRoleVendor, nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestStoreUpdateForwardsRoleAndFields(t *testing.T) {
	id := uuid.New()
	svc := &stubStoreService{dto: sampleStore()}
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPut, "/api/v1/stores/"+id.String(), `{"status":"active","shippingPolicies":[]}`, uuid.New(), enums.ActorRoleAdmin, map[string]string{"storeId": id.String()})
	StoreUpdate(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.role != enums.ActorRoleAdmin {
		t.Fatalf("expected admin role got %q", svc.role)
	}
	if svc.updated.Status == nil || *svc.updated.Status != enums.StoreStatusActive {
		t.Fatalf("expected status to be forwarded")
	}
	if svc.updated.ShippingPolicies == nil || len(*svc.updated.ShippingPolicies) != 0 {
		t.Fatalf("expected explicit empty shipping policies")
	}
	if svc.updated.Name != nil || svc.updated.ReturnPolicies != nil {
		t.Fatalf("omitted fields must stay nil")
	}
}

func TestStoreUpdateRejectsUnknownStatus(t *testing.T) {
	id := uuid.New()
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPut, "/api/v1/stores/"+id.String(), `{"status":"closed"}`, uuid.New(), enums.ActorRoleAdmin, map[string]string{"storeId": id.String()})
	StoreUpdate(&stubStoreService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestStoreDeleteConflict(t *testing.T) {
	id := uuid.New()
	svc := &stubStoreService{err: stores.ErrStoreHasOrders}
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodDelete, "/api/v1/stores/"+id.String(), "", uuid.New(), enums.ActorRoleVendor, map[string]string{"storeId": id.String()})
	StoreDelete(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	if svc.deletedID != id {
		t.Fatalf("expected delete of %s", id)
	}
}
