package orders

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderstock/api/responses"
	"github.com/angelmondragon/orderstock/api/validators"
	internalorders "github.com/angelmondragon/orderstock/internal/orders"
	pkgerrors "github.com/angelmondragon/orderstock/pkg/errors"
	"github.com/angelmondragon/orderstock/pkg/logger"
)

// createOrderRequest leaves quantity unchecked here; the service owns the
// INVALID_QUANTITY rule.
type createOrderRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	ProductID  string `json:"product_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity"`
}

func (req createOrderRequest) toInput() (internalorders.CreateOrderInput, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_id")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
	}
	return internalorders.CreateOrderInput{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   req.Quantity,
	}, nil
}

// Create reserves stock and persists a new order.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Location", "/api/v1/orders/"+order.ID.String())
		responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.ToDTO(*order))
	}
}

// List returns every order, or one customer's orders when ?customer_id is set.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, filtered, err := validators.ParseQueryUUID(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filtered {
			writeList(w, r, logg, func() (any, error) {
				list, err := svc.ListOrdersForCustomer(r.Context(), customerID)
				return internalorders.ToDTOs(list), err
			})
			return
		}
		writeList(w, r, logg, func() (any, error) {
			list, err := svc.ListOrders(r.Context())
			return internalorders.ToDTOs(list), err
		})
	}
}

func ListForCustomer(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.ParseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeList(w, r, logg, func() (any, error) {
			list, err := svc.ListOrdersForCustomer(r.Context(), customerID)
			return internalorders.ToDTOs(list), err
		})
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToDTO(*order))
	}
}

// Delete removes the order record. Reserved stock is not returned.
func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteOrder(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"id": orderID.String(), "status": "deleted"})
	}
}

func writeList(w http.ResponseWriter, r *http.Request, logg *logger.Logger, fetch func() (any, error)) {
	data, err := fetch()
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, data)
}
