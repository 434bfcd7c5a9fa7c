package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataFor(t *testing.T) {
	cases := map[Code]Metadata{
		CodeValidation:    {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", ClientFacing: true, DetailsAllowed: true},
		CodeUnauthorized:  {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required", ClientFacing: true},
		CodeStateConflict: {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "business rule violated", ClientFacing: true, DetailsAllowed: true},
		CodeIdempotency:   {HTTPStatus: http.StatusConflict, PublicMessage: "idempotency key reused", ClientFacing: true, DetailsAllowed: true},
		CodeInternal:      {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error", Retryable: true},
		CodeDependency:    {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: "dependency unavailable", Retryable: true},
		"NO_SUCH_CODE":    {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error", Retryable: true},
	}
	for code, want := range cases {
		if got := MetadataFor(code); got != want {
			t.Errorf("%s: expected %+v, got %+v", code, want, got)
		}
	}
	if MetadataFor(CodeInternal).ClientFacing || !MetadataFor(CodeRateLimit).ClientFacing {
		t.Fatal("client-facing flags wrong")
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	withDetails := base.WithDetails(map[string]any{"field": "foo"})
	if withDetails.Details() == nil {
		t.Fatalf("details should be preserved")
	}
	if base.Details() != nil {
		t.Fatalf("WithDetails must not mutate the receiver")
	}

	withCause := base.WithCause(stdErrors.New("db"))
	if base.Unwrap() != nil || withCause.Unwrap() == nil {
		t.Fatalf("WithCause must copy")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestKindMatchesCopies(t *testing.T) {
	sentinel := Kind(CodeStateConflict, "QUANTITY_EXCEEDS_STOCK", "quantity exceeds stock")
	other := Kind(CodeStateConflict, "CART_EMPTY", "cart is empty")

	detailed := sentinel.WithDetails(map[string]any{"max_allowed": 3})
	wrapped := fmt.Errorf("service: %w", detailed)

	if !stdErrors.Is(wrapped, sentinel) {
		t.Fatalf("expected wrapped copy to match sentinel")
	}
	if stdErrors.Is(wrapped, other) {
		t.Fatalf("different reasons must not match")
	}
	if stdErrors.Is(New(CodeStateConflict, "plain"), sentinel) {
		t.Fatalf("reasonless error must not match a reasoned sentinel")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestLogFieldsDescribesChain(t *testing.T) {
	cause := &pgconn.PgError{Code: "23505", ConstraintName: "coupons_code_key", TableName: "coupons"}
	err := Wrap(CodeConflict, fmt.Errorf("insert coupon: %w", cause), "coupon code taken")

	fields := LogFields(err)
	if fields["error_code"] != CodeConflict {
		t.Fatalf("expected conflict code, got %v", fields["error_code"])
	}
	if chain, _ := fields["error_chain"].([]string); len(chain) != 3 {
		t.Fatalf("expected three chain entries, got %v", fields["error_chain"])
	}
	if fields["pg_code"] != "23505" || fields["pg_constraint"] != "coupons_code_key" {
		t.Fatalf("expected postgres details, got %v", fields)
	}
	if _, ok := fields["pg_detail"]; ok {
		t.Fatalf("empty driver fields should be omitted")
	}

	plain := LogFields(stdErrors.New("boom"))
	if plain["error"] != "boom" || plain["error_code"] != nil {
		t.Fatalf("unexpected fields for untyped error: %v", plain)
	}
}
