package inventory

import (
	"context"

	pkgerrors "github.com/angelmondragon/orderstock/pkg/errors"
	"github.com/google/uuid"
)

// Outcome is the business result of a reservation attempt.
type Outcome int

const (
	Reserved Outcome = iota
	InsufficientStock
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Reserved:
		return "reserved"
	case InsufficientStock:
		return "insufficient_stock"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Store owns per-product available quantities. TryReserve checks and
// decrements in one atomic step; errors are reserved for infrastructure
// failures, business results travel in Outcome.
type Store interface {
	TryReserve(ctx context.Context, productID uuid.UUID, qty int) (Outcome, error)
	Release(ctx context.Context, productID uuid.UUID, qty int) error
	SetStock(ctx context.Context, productID uuid.UUID, qty int) error
	Available(ctx context.Context, productID uuid.UUID) (int, error)
}

func requirePositive(qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be greater than zero").
			WithDetails(map[string]any{"quantity": qty})
	}
	return nil
}

func requireNonNegative(qty int) error {
	if qty < 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "stock cannot be negative").
			WithDetails(map[string]any{"quantity": qty})
	}
	return nil
}

func productNotFound(productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
		WithDetails(map[string]any{"product_id": productID.String()})
}

func dependencyErr(err error, op string, productID uuid.UUID) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op+" "+productID.String())
}
