package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/api/middleware"
	ordersvc "github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

type stubOrdersService struct {
	order       *ordersvc.OrderDTO
	page        pagination.Page[ordersvc.OrderDTO]
	err         error
	placed      ordersvc.PlaceOrderInput
	actor       ordersvc.Actor
	status      enums.OrderStatus
	params      pagination.Params
	storeID     uuid.UUID
	deletedID   uuid.UUID
	placedCalls int
}

func (s *stubOrdersService) PlaceOrder(ctx context.Context, userID uuid.UUID, input ordersvc.PlaceOrderInput) (*ordersvc.OrderDTO, error) {
	s.placedCalls++
	s.placed = input
	s.actor.UserID = userID
	return s.order, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, actor ordersvc.Actor, id uuid.UUID) (*ordersvc.OrderDTO, error) {
	s.actor = actor
	return s.order, s.err
}

func (s *stubOrdersService) List(ctx context.Context, params pagination.Params) (pagination.Page[ordersvc.OrderDTO], error) {
	s.params = params
	return s.page, s.err
}

func (s *stubOrdersService) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[ordersvc.OrderDTO], error) {
	s.actor.UserID = userID
	s.params = params
	return s.page, s.err
}

func (s *stubOrdersService) ListByStore(ctx context.Context, actor ordersvc.Actor, storeID uuid.UUID, params pagination.Params) (pagination.Page[ordersvc.OrderDTO], error) {
	s.actor = actor
	s.storeID = storeID
	s.params = params
	return s.page, s.err
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, actor ordersvc.Actor, id uuid.UUID, status enums.OrderStatus) (*ordersvc.OrderDTO, error) {
	s.actor = actor
	s.status = status
	return s.order, s.err
}

func (s *stubOrdersService) Delete(ctx context.Context, actor ordersvc.Actor, id uuid.UUID) error {
	s.actor = actor
	s.deletedID = id
	return s.err
}

func request(method, target, body string, userID uuid.UUID, role enums.ActorRole, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, role)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestPlaceOrderAcceptsNumbersAndStrings(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	storeID := uuid.New()
	addressID := uuid.New()
	svc := &stubOrdersService{order: &ordersvc.OrderDTO{ID: uuid.New(), Status: enums.OrderStatusPending}}

	body := `{
		"orderItems":[{"productId":"` + productID.String() + `","quantity":2,"price":"45.50"}],
		"storeIds":["` + storeID.String() + `"],
		"totalAmount":91,
		"selectedAddressId":"` + addressID.String() + `",
		"selectedPaymentMethod":"cash_on_delivery",
		"orderComment":"  leave at the door  "
	}`

	resp := httptest.NewRecorder()
	PlaceOrder(svc, nil).ServeHTTP(resp, request(http.MethodPost, "/api/v1/orders", body, userID, enums.ActorRoleUser, nil))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.actor.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, svc.actor.UserID)
	}
	in := svc.placed
	if in.TotalAmount != "91" {
		t.Fatalf("expected total 91 got %q", in.TotalAmount)
	}
	if len(in.Items) != 1 || in.Items[0].Price != "45.50" || in.Items[0].Quantity != 2 || in.Items[0].ProductID != productID.String() {
		t.Fatalf("unexpected items %+v", in.Items)
	}
	if len(in.StoreIDs) != 1 || in.StoreIDs[0] != storeID.String() {
		t.Fatalf("unexpected stores %+v", in.StoreIDs)
	}
	if in.SelectedAddressID != addressID.String() {
		t.Fatalf("unexpected address %q", in.SelectedAddressID)
	}
	if in.OrderComment == nil || *in.OrderComment != "leave at the door" {
		t.Fatalf("expected trimmed comment")
	}
	if in.ExpectedDeliveryDays != nil {
		t.Fatalf("expected default delivery days")
	}
}

func TestPlaceOrderPassesBlankIDsToService(t *testing.T) {
	svc := &stubOrdersService{order: &ordersvc.OrderDTO{ID: uuid.New()}}
	body := `{"orderItems":[{"productId":"","quantity":1,"price":"1"}],"storeIds":["x"],"totalAmount":"10","selectedAddressId":"","selectedPaymentMethod":"cod"}`

	resp := httptest.NewRecorder()
	PlaceOrder(svc, nil).ServeHTTP(resp, request(http.MethodPost, "/api/v1/orders", body, uuid.New(), enums.ActorRoleUser, nil))

	if svc.placedCalls != 1 {
		t.Fatalf("expected the service to decide, got %d calls: %s", svc.placedCalls, resp.Body.String())
	}
	in := svc.placed
	if in.SelectedAddressID != "" || in.StoreIDs[0] != "x" || in.Items[0].ProductID != "" {
		t.Fatalf("ids should reach the service untouched: %+v", in)
	}
}

func TestPlaceOrderEmptyItemsAndBlankAddressReachService(t *testing.T) {
	svc := &stubOrdersService{order: &ordersvc.OrderDTO{ID: uuid.New()}}
	body := `{"orderItems":[],"storeIds":[],"totalAmount":"10","selectedAddressId":"","selectedPaymentMethod":"cod"}`

	resp := httptest.NewRecorder()
	PlaceOrder(svc, nil).ServeHTTP(resp, request(http.MethodPost, "/api/v1/orders", body, uuid.New(), enums.ActorRoleUser, nil))

	if svc.placedCalls != 1 {
		t.Fatalf("decode should not reject the body, got %d calls: %s", svc.placedCalls, resp.Body.String())
	}
	if len(svc.placed.Items) != 0 || svc.placed.SelectedAddressID != "" {
		t.Fatalf("unexpected input %+v", svc.placed)
	}
}

func TestPlaceOrderSurfacesFieldError(t *testing.T) {
	fieldErr := pkgerrors.New(pkgerrors.CodeValidation, "At least one store ID is required").
		WithDetails(map[string]any{"field": "storeIds"})
	svc := &stubOrdersService{err: fieldErr}

	resp := httptest.NewRecorder()
	PlaceOrder(svc, nil).ServeHTTP(resp, request(http.MethodPost, "/api/v1/orders", `{"orderItems":[]}`, uuid.New(), enums.ActorRoleUser, nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != "At least one store ID is required" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestPlaceOrderRejectsMalformedTotal(t *testing.T) {
	svc := &stubOrdersService{}

	resp := httptest.NewRecorder()
	PlaceOrder(svc, nil).ServeHTTP(resp, request(http.MethodPost, "/api/v1/orders", `{"totalAmount":true}`, uuid.New(), enums.ActorRoleUser, nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.placedCalls != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestPlaceOrderCreationFailed(t *testing.T) {
	svc := &stubOrdersService{err: ordersvc.ErrOrderCreationFailed}

	resp := httptest.NewRecorder()
	PlaceOrder(svc, nil).ServeHTTP(resp, request(http.MethodPost, "/api/v1/orders", `{}`, uuid.New(), enums.ActorRoleUser, nil))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestOrderGetPassesActor(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrdersService{order: &ordersvc.OrderDTO{ID: orderID}}

	resp := httptest.NewRecorder()
	req := request(http.MethodGet, "/api/v1/orders/"+orderID.String(), "", userID, enums.ActorRoleVendor, map[string]string{"orderId": orderID.String()})
	OrderGet(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.actor.UserID != userID || svc.actor.Role != enums.ActorRoleVendor {
		t.Fatalf("unexpected actor %+v", svc.actor)
	}
}

func TestOrderGetInvalidID(t *testing.T) {
	resp := httptest.NewRecorder()
	req := request(http.MethodGet, "/api/v1/orders/nope", "", uuid.New(), enums.ActorRoleUser, map[string]string{"orderId": "nope"})
	OrderGet(&stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderListMinePagination(t *testing.T) {
	svc := &stubOrdersService{page: pagination.Page[ordersvc.OrderDTO]{Items: []ordersvc.OrderDTO{{ID: uuid.New()}}, NextCursor: "abc"}}

	resp := httptest.NewRecorder()
	OrderListMine(svc, nil).ServeHTTP(resp, request(http.MethodGet, "/api/v1/orders/user?limit=5&cursor=xyz", "", uuid.New(), enums.ActorRoleUser, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.params.Limit != 5 || svc.params.Cursor != "xyz" {
		t.Fatalf("unexpected params %+v", svc.params)
	}
	var envelope struct {
		Data pagination.Page[ordersvc.OrderDTO] `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.NextCursor != "abc" || len(envelope.Data.Items) != 1 {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}

func TestOrderListRejectsBadLimit(t *testing.T) {
	resp := httptest.NewRecorder()
	OrderList(&stubOrdersService{}, nil).ServeHTTP(resp, request(http.MethodGet, "/api/v1/orders?limit=0", "", uuid.New(), enums.ActorRoleAdmin, nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestStoreOrders(t *testing.T) {
	storeID := uuid.New()
	svc := &stubOrdersService{}

	resp := httptest.NewRecorder()
	req := request(http.MethodGet, "/api/v1/stores/"+storeID.String()+"/orders", "", uuid.New(), enums.ActorRoleVendor, map[string]string{"storeId": storeID.String()})
	StoreOrders(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.storeID != storeID {
		t.Fatalf("expected store %s got %s", storeID, svc.storeID)
	}
	if svc.params.Limit != pagination.DefaultLimit {
		t.Fatalf("expected default limit got %d", svc.params.Limit)
	}
}

func TestOrderUpdateStatus(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{order: &ordersvc.OrderDTO{ID: orderID, Status: enums.OrderStatusShipped}}

	resp := httptest.NewRecorder()
	req := request(http.MethodPatch, "/api/v1/orders/"+orderID.String(), `{"status":"shipped"}`, uuid.New(), enums.ActorRoleAdmin, map[string]string{"orderId": orderID.String()})
	OrderUpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped got %s", svc.status)
	}
}

func TestOrderUpdateStatusRequiresStatus(t *testing.T) {
	orderID := uuid.New()
	resp := httptest.NewRecorder()
	req := request(http.MethodPatch, "/api/v1/orders/"+orderID.String(), `{}`, uuid.New(), enums.ActorRoleAdmin, map[string]string{"orderId": orderID.String()})
	OrderUpdateStatus(&stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderDelete(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{}

	resp := httptest.NewRecorder()
	req := request(http.MethodDelete, "/api/v1/orders/"+orderID.String(), "", uuid.New(), enums.ActorRoleAdmin, map[string]string{"orderId": orderID.String()})
	OrderDelete(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if svc.deletedID != orderID {
		t.Fatalf("expected %s got %s", orderID, svc.deletedID)
	}
}
