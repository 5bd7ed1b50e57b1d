package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/api/responses"
	"github.com/harvestly/harvestly-backend/api/validators"
	"github.com/harvestly/harvestly-backend/internal/cart"
	"github.com/harvestly/harvestly-backend/internal/coupons"
	"github.com/harvestly/harvestly-backend/internal/products"
	pkgerrors "github.com/harvestly/harvestly-backend/pkg/errors"
	"github.com/harvestly/harvestly-backend/pkg/logger"
)

type CartAddItemBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

type CartSetQuantityBody struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type CartCouponBody struct {
	Code string `json:"code" validate:"required,min=1,max=64"`
}

// outcomeError maps the reducer's signalling outcomes onto a 409 whose
// details.reason lets the client run its confirm-and-retry flow.
func outcomeError(outcome cart.Outcome) *pkgerrors.Error {
	switch outcome {
	case cart.OutcomeSupplierConflict:
		return pkgerrors.New(pkgerrors.CodeConflict, "cart holds items from another farmer").
			WithDetails(map[string]string{"reason": string(outcome)})
	case cart.OutcomeStockLimitReached:
		return pkgerrors.New(pkgerrors.CodeConflict, "no more stock available for this product").
			WithDetails(map[string]string{"reason": string(outcome)})
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, "unexpected cart outcome")
	}
}

func CartFetch(manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := manager.Store(r.Context(), actor.UserID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.State())
	}
}

func CartAddItem(manager *cart.Manager, productsRepo *products.Repo, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body CartAddItemBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(body.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id must be a uuid"))
			return
		}

		product, err := productsRepo.FindByID(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product"))
			return
		}
		if product == nil || !product.IsActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", productID))
			return
		}

		store, err := manager.Store(r.Context(), actor.UserID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := store.AddItem(r.Context(), cart.ProductRef{
			ProductID:  product.ID,
			Name:       product.Name,
			UnitPrice:  product.Price,
			StockLimit: product.CountInStock,
			SupplierID: product.FarmerID,
			Image:      product.Image,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if outcome != cart.OutcomeOK {
			responses.WriteError(r.Context(), logg, w, outcomeError(outcome))
			return
		}

		responses.WriteSuccess(w, store.State())
	}
}

func CartSetQuantity(manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "productId must be a uuid"))
			return
		}

		var body CartSetQuantityBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := manager.Store(r.Context(), actor.UserID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.SetQuantity(r.Context(), productID, body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.State())
	}
}

func CartRemoveItem(manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "productId must be a uuid"))
			return
		}

		store, err := manager.Store(r.Context(), actor.UserID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.RemoveItem(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.State())
	}
}

func CartClear(manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := manager.Store(r.Context(), actor.UserID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.State())
	}
}

func CartApplyCoupon(manager *cart.Manager, couponsService coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body CartCouponBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := manager.Store(r.Context(), actor.UserID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state := store.State()
		if state.IsEmpty() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}

		result, err := couponsService.CheckCode(r.Context(), actor.UserID, body.Code, state.TotalPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		applied := cart.AppliedCoupon{
			Code:  result.Coupon.Code,
			Kind:  result.Coupon.Kind,
			Value: result.Coupon.Value,
		}
		if result.Coupon.MaxDiscount.Valid {
			limit := result.Coupon.MaxDiscount.Decimal
			applied.MaxDiscount = &limit
		}
		if err := store.ApplyCoupon(r.Context(), applied, result.DiscountAmount); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.State())
	}
}

func CartRemoveCoupon(manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := manager.Store(r.Context(), actor.UserID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.RemoveCoupon(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.State())
	}
}
