package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/api/responses"
	"github.com/harvestly/harvestly-backend/api/validators"
	"github.com/harvestly/harvestly-backend/internal/orders"
	"github.com/harvestly/harvestly-backend/pkg/db/models"
	pkgerrors "github.com/harvestly/harvestly-backend/pkg/errors"
	"github.com/harvestly/harvestly-backend/pkg/logger"
)

// orderView shapes an order for the response envelope, rendering amounts
// with two decimals at the presentation edge.
func orderView(order models.Order) map[string]any {
	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"product_id": item.ProductID,
			"farmer_id":  item.FarmerID,
			"name":       item.Name,
			"unit_price": item.UnitPrice.StringFixed(2),
			"quantity":   item.Quantity,
			"image":      item.Image,
		})
	}
	view := map[string]any{
		"id":                    order.ID,
		"status":                order.Status,
		"shipping_address":      order.ShippingAddress,
		"payment_method":        order.PaymentMethod,
		"subtotal":              order.Subtotal.StringFixed(2),
		"shipping_fee":          order.ShippingFee.StringFixed(2),
		"discount_amount":       order.DiscountAmount.StringFixed(2),
		"grand_total":           order.GrandTotal.StringFixed(2),
		"estimated_delivery_at": order.EstimatedDeliveryAt.Format(time.RFC3339),
		"created_at":            order.CreatedAt.Format(time.RFC3339),
		"items":                 items,
	}
	if order.CouponID != nil {
		view["coupon_id"] = order.CouponID
	}
	return view
}

func OrdersList(ordersService orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := ordersService.List(r.Context(), actor.UserID, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]map[string]any, 0, len(list))
		for _, order := range list {
			views = append(views, orderView(order))
		}
		responses.WriteSuccess(w, views)
	}
}

func OrderDetail(ordersService orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "orderId must be a uuid"))
			return
		}

		order, err := ordersService.Get(r.Context(), actor.UserID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderView(*order))
	}
}
