package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/orderstock/internal/inventory"
	"github.com/angelmondragon/orderstock/pkg/config"
	"github.com/angelmondragon/orderstock/pkg/db/models"
	"github.com/angelmondragon/orderstock/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderstock/pkg/errors"
	"github.com/angelmondragon/orderstock/pkg/logger"
	"github.com/angelmondragon/orderstock/pkg/metrics"
	"github.com/angelmondragon/orderstock/pkg/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/angelmondragon/orderstock/internal/orders"

const (
	defaultPersistTimeout = 5 * time.Second
	defaultReleaseTimeout = 10 * time.Second
	defaultMaxIDAttempts  = 3
)

// ServiceParams wires the order service. Metrics, Tracer, NewID and Now are optional.
type ServiceParams struct {
	Store     Store
	Inventory inventory.Store
	Logger    *logger.Logger
	Config    config.OrdersConfig
	Metrics   *metrics.OrderMetrics
	Tracer    trace.Tracer
	NewID     func() uuid.UUID
	Now       func() time.Time
}

type service struct {
	store          Store
	inventory      inventory.Store
	logg           *logger.Logger
	metrics        *metrics.OrderMetrics
	tracer         trace.Tracer
	newID          func() uuid.UUID
	now            func() time.Time
	persistTimeout time.Duration
	releaseTimeout time.Duration
	maxIDAttempts  int
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}

	svc := &service{
		store:          params.Store,
		inventory:      params.Inventory,
		logg:           params.Logger,
		metrics:        params.Metrics,
		tracer:         params.Tracer,
		newID:          params.NewID,
		now:            params.Now,
		persistTimeout: params.Config.PersistTimeout,
		releaseTimeout: params.Config.ReleaseTimeout,
		maxIDAttempts:  params.Config.MaxIDAttempts,
	}
	if svc.tracer == nil {
		svc.tracer = tracing.Tracer(tracerName)
	}
	if svc.newID == nil {
		svc.newID = uuid.New
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.persistTimeout <= 0 {
		svc.persistTimeout = defaultPersistTimeout
	}
	if svc.releaseTimeout <= 0 {
		svc.releaseTimeout = defaultReleaseTimeout
	}
	if svc.maxIDAttempts <= 0 {
		svc.maxIDAttempts = defaultMaxIDAttempts
	}
	return svc, nil
}

// CreateOrder reserves stock, persists the order and releases the reservation
// on every exit that did not persist.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (order *models.Order, err error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "orders.create", trace.WithAttributes(
		attribute.String("order.customer_id", input.CustomerID.String()),
		attribute.String("order.product_id", input.ProductID.String()),
		attribute.Int("order.quantity", input.Quantity),
	))
	defer func() {
		result := "ok"
		switch {
		case err != nil:
			result = string(codeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		case order != nil:
			span.SetAttributes(attribute.String("order.id", order.ID.String()))
		default:
			// unwinding from a panic
			result = "panic"
			span.SetStatus(codes.Error, result)
		}
		s.metrics.ObserveCreate(result, s.now().Sub(start))
		span.End()
	}()

	if err := validateCreate(input); err != nil {
		return nil, err
	}

	ctx = s.logg.WithCustomerID(ctx, input.CustomerID.String())
	ctx = s.logg.WithProductID(ctx, input.ProductID.String())
	ctx = s.logg.WithField(ctx, "quantity", input.Quantity)

	outcome, err := s.inventory.TryReserve(ctx, input.ProductID, input.Quantity)
	if err != nil {
		s.metrics.IncReservation("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "reserve inventory")
	}
	s.metrics.IncReservation(outcome.String())
	span.AddEvent("inventory.reserve", trace.WithAttributes(attribute.String("outcome", outcome.String())))

	switch outcome {
	case inventory.NotFound:
		return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
			WithDetails(map[string]any{"product_id": input.ProductID.String()})
	case inventory.InsufficientStock:
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "quantity ordered exceeds stock").
			WithDetails(map[string]any{"product_id": input.ProductID.String(), "quantity": input.Quantity})
	}

	h := newHold(s.inventory, input.ProductID, input.Quantity)
	defer func() {
		if order == nil {
			s.compensate(ctx, h)
		}
	}()

	order, err = s.persist(ctx, input, h)
	if err != nil {
		return nil, err
	}
	h.settle()
	s.metrics.IncCreated()
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created")
	return order, nil
}

// persist inserts under a bounded timeout, regenerating the id on collisions.
// Any other insert error may hide a commit whose acknowledgement was lost.
func (s *service) persist(ctx context.Context, input CreateOrderInput, h *hold) (*models.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxIDAttempts; attempt++ {
		order := &models.Order{
			ID:         s.newID(),
			CustomerID: input.CustomerID,
			ProductID:  input.ProductID,
			Quantity:   input.Quantity,
			Status:     enums.OrderStatusConfirmed,
			CreatedAt:  s.now().UTC(),
		}

		pctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
		_, err := s.store.Create(pctx, order)
		cancel()
		if err == nil {
			return order, nil
		}

		if pkgerrors.Is(err, pkgerrors.CodeDuplicateID) {
			lastErr = err
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"order_id": order.ID.String(),
				"attempt":  attempt,
			}), "order id collision, regenerating")
			continue
		}
		return s.confirmPersisted(ctx, order, h, err)
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicateID, lastErr, "order id collided on every attempt").
		WithDetails(map[string]any{"attempts": s.maxIDAttempts})
}

// confirmPersisted resolves a failed insert by looking the order up. A stored
// row is returned as created; a confirmed miss leaves the hold to be released.
// If the lookup fails too the hold is settled and the stock stays reserved.
func (s *service) confirmPersisted(ctx context.Context, order *models.Order, h *hold, cause error) (*models.Order, error) {
	failure := pkgerrors.As(cause)
	if failure == nil || failure.Code() != pkgerrors.CodePersistenceFailure {
		failure = pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, cause, "persist order")
	}

	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.releaseTimeout)
	defer cancel()

	stored, err := s.store.FindByID(lctx, order.ID)
	switch {
	case err == nil:
		s.logg.Warn(s.logg.WithFields(s.logg.WithOrderID(ctx, order.ID.String()), map[string]any{
			"store_error": cause.Error(),
		}), "order persisted despite store error")
		return stored, nil
	case pkgerrors.Is(err, pkgerrors.CodeOrderNotFound):
		return nil, failure
	default:
		h.settle()
		s.metrics.IncCompensation(metrics.CompensationWithheld)
		s.logg.Error(s.logg.WithFields(s.logg.WithOrderID(ctx, order.ID.String()), map[string]any{
			"event":        "order.persist_unconfirmed",
			"lookup_error": err.Error(),
		}), "order.persist_unconfirmed", cause)
		return nil, failure
	}
}

// compensate releases a hold on a context detached from the caller so a
// cancelled request still returns its stock. Failure is not retried: it is
// logged as a consistency violation for manual reconciliation.
func (s *service) compensate(ctx context.Context, h *hold) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.releaseTimeout)
	defer cancel()

	attempted, err := h.release(rctx)
	if !attempted {
		return
	}
	if err != nil {
		s.metrics.IncCompensation(metrics.CompensationFailed)
		s.logg.Error(s.logg.WithField(ctx, "event", "inventory.release_failed"), "inventory.release_failed", err)
		return
	}
	s.metrics.IncCompensation(metrics.CompensationReleased)
	s.logg.Warn(ctx, "reservation released after failed persist")
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.store.FindByID(ctx, id)
}

func (s *service) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.store.ListAll(ctx)
}

func (s *service) ListOrdersForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return s.store.FindByCustomer(ctx, customerID)
}

// DeleteOrder removes the record only; stock is not credited back.
func (s *service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, id.String()), "order deleted")
	return nil
}

func validateCreate(input CreateOrderInput) error {
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be greater than zero").
			WithDetails(map[string]any{"quantity": input.Quantity})
	}
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return nil
}

func codeOf(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return pkgerrors.CodeInternal
}
