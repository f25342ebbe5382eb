package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/greenswap/greenswap/api/http/presenter"
	"github.com/greenswap/greenswap/pkg/catalog"
)

type CatalogHandler struct {
	uc catalog.UseCase
}

func NewCatalogHandler(uc catalog.UseCase) *CatalogHandler { return &CatalogHandler{uc: uc} }

// List generates sustainable product options for a category.
// @Summary List sustainable product options
// @Tags    catalog
// @Produce json
// @Param   category query string true "product category, e.g. eco-friendly bags"
// @Security BearerAuth
// @Success 200 {array} catalog.Product
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 502 {object} presenter.ErrorResponse
// @Router  /products [get]
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	category := strings.TrimSpace(c.Query("category"))
	if category == "" {
		return presenter.Error(c, http.StatusBadRequest, "category is required")
	}
	products, err := h.uc.ListSustainableOptions(c.Context(), category)
	if err != nil {
		return presenter.Error(c, http.StatusBadGateway, "failed to generate product options")
	}
	return presenter.JSON(c, http.StatusOK, products)
}

// Detail generates the full description of one product.
// @Summary Get product detail
// @Tags    catalog
// @Produce json
// @Param   id path string true "product id"
// @Security BearerAuth
// @Success 200 {object} catalog.ProductDetail
// @Failure 502 {object} presenter.ErrorResponse
// @Router  /products/{id} [get]
func (h *CatalogHandler) Detail(c *fiber.Ctx) error {
	detail, err := h.uc.GetProductDetail(c.Context(), c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadGateway, "failed to generate product detail")
	}
	return presenter.JSON(c, http.StatusOK, detail)
}

type priceRequest struct {
	SelectedFeatures []string `json:"selectedFeatures"`
}

// Price quotes a product configured with selected features.
// @Summary Quote a configured product price
// @Tags    catalog
// @Accept  json
// @Produce json
// @Param   id path string true "product id"
// @Param   input body priceRequest true "selected feature labels"
// @Security BearerAuth
// @Success 200 {object} catalog.PriceQuote
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 502 {object} presenter.ErrorResponse
// @Router  /products/{id}/price [post]
func (h *CatalogHandler) Price(c *fiber.Ctx) error {
	var req priceRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	quote, err := h.uc.QuotePrice(c.Context(), c.Params("id"), req.SelectedFeatures)
	if err != nil {
		return presenter.Error(c, http.StatusBadGateway, "failed to quote price")
	}
	return presenter.JSON(c, http.StatusOK, quote)
}
