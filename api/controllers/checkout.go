package controllers

import (
	"net/http"

	"github.com/harvestly/harvestly-backend/api/responses"
	"github.com/harvestly/harvestly-backend/api/validators"
	"github.com/harvestly/harvestly-backend/internal/cart"
	checkoutsvc "github.com/harvestly/harvestly-backend/internal/checkout"
	"github.com/harvestly/harvestly-backend/pkg/logger"
	"github.com/harvestly/harvestly-backend/pkg/types"
)

type CheckoutAddressBody struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`
	Phone    string `json:"phone"`
}

type CheckoutBody struct {
	ShippingAddress CheckoutAddressBody `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method" validate:"required,oneof=cash_on_delivery card_on_delivery"`
}

func Checkout(checkoutService checkoutsvc.Service, manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body CheckoutBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := manager.Store(r.Context(), actor.UserID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := checkoutService.Submit(r.Context(), actor, store, checkoutsvc.SubmitInput{
			ShippingAddress: types.ShippingAddress{
				FullName: body.ShippingAddress.FullName,
				Address:  body.ShippingAddress.Address,
				City:     body.ShippingAddress.City,
				District: body.ShippingAddress.District,
				Phone:    body.ShippingAddress.Phone,
			},
			PaymentMethod: body.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, orderView(*order))
	}
}
