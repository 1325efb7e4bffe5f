package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeIdempotency, status: http.StatusConflict, detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
		{code: CodeInvalidQuantity, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeProductNotFound, status: http.StatusNotFound},
		{code: CodeInsufficientStock, status: http.StatusConflict, detailsOK: true},
		{code: CodeOrderNotFound, status: http.StatusNotFound},
		{code: CodePersistenceFailure, status: http.StatusServiceUnavailable, retryable: true},
		{code: CodeDuplicateID, status: http.StatusConflict, retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s missing public message", tt.code)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
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

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodePersistenceFailure, cause, "persist order")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "PERSISTENCE_FAILURE: persist order: boom" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestAsAndIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeOrderNotFound, "order not found"))
	if got := As(err); got == nil || got.Code() != CodeOrderNotFound {
		t.Fatalf("As failed to return typed error")
	}
	if !Is(err, CodeOrderNotFound) {
		t.Fatalf("Is should match order not found")
	}
	if Is(err, CodeProductNotFound) {
		t.Fatalf("Is should not match product not found")
	}
	if As(nil) != nil || Is(nil, CodeInternal) {
		t.Fatalf("nil errors should not match")
	}
}

func TestDumpCapturesChainAndPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_pkey", TableName: "orders", Message: "duplicate key value"}
	err := Wrap(CodeDuplicateID, pgErr, "insert order")

	d := Dump(err)
	if d.Code != CodeDuplicateID || !d.Retryable {
		t.Fatalf("unexpected code/retryable %+v", d)
	}
	if d.PGCode != "23505" || d.PGConstraint != "orders_pkey" || d.PGTable != "orders" {
		t.Fatalf("postgres details missing: %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %v", d.Chain)
	}
	if _, ok := d.Fields()["pg_code"]; !ok {
		t.Fatalf("fields should include pg_code")
	}
}

func TestPostgresCodeFromPQ(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "orders_pkey"})
	code, constraint, ok := PostgresCode(err)
	if !ok || code != "23505" || constraint != "orders_pkey" {
		t.Fatalf("unexpected pq extraction %q %q %v", code, constraint, ok)
	}
	if _, _, ok := PostgresCode(stdErrors.New("plain")); ok {
		t.Fatalf("plain errors carry no postgres code")
	}
	if fields := Dump(stdErrors.New("plain")).Fields(); fields["pg_code"] != nil {
		t.Fatalf("plain errors should not add pg fields")
	}
}
