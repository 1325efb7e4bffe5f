package inventory

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderstock/api/responses"
	"github.com/angelmondragon/orderstock/api/validators"
	internalinventory "github.com/angelmondragon/orderstock/internal/inventory"
	pkgerrors "github.com/angelmondragon/orderstock/pkg/errors"
	"github.com/angelmondragon/orderstock/pkg/logger"
)

type setStockRequest struct {
	Available *int `json:"available" validate:"required"`
}

type stockDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Available int       `json:"available"`
}

// SetStock creates the product's stock level or overwrites it.
func SetStock(store internalinventory.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.SetStock(r.Context(), productID, *req.Available); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithFields(logg.WithProductID(r.Context(), productID.String()), map[string]any{"available": *req.Available})
			logg.Info(ctx, "inventory.stock_set")
		}
		responses.WriteSuccess(w, stockDTO{ProductID: productID, Available: *req.Available})
	}
}

func GetStock(store internalinventory.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		available, err := store.Available(r.Context(), productID)
		if err != nil {
			if pkgerrors.As(err) == nil {
				err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stockDTO{ProductID: productID, Available: available})
	}
}
