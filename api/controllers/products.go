package controllers

import (
	"net/http"

	"github.com/harvestly/harvestly-backend/api/responses"
	"github.com/harvestly/harvestly-backend/api/validators"
	"github.com/harvestly/harvestly-backend/internal/products"
	pkgerrors "github.com/harvestly/harvestly-backend/pkg/errors"
	"github.com/harvestly/harvestly-backend/pkg/logger"
)

func ProductsList(productsRepo *products.Repo, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		list, err := productsRepo.ListActive(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products"))
			return
		}

		views := make([]map[string]any, 0, len(list))
		for _, product := range list {
			views = append(views, map[string]any{
				"id":             product.ID,
				"farmer_id":      product.FarmerID,
				"name":           product.Name,
				"price":          product.Price.StringFixed(2),
				"image":          product.Image,
				"count_in_stock": product.CountInStock,
			})
		}
		responses.WriteSuccess(w, views)
	}
}
