package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/greenbasket/backend/internal/models"
	"github.com/greenbasket/backend/internal/mykafka"
	"github.com/greenbasket/backend/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer mykafka.Publisher
	ES       *elasticsearch.Client
	Index    string
}

func (h *ProductHandler) publish(c echo.Context, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

// indexProduct mirrors the product into the search index. Failures are logged
// only; the catalog write has already succeeded.
func (h *ProductHandler) indexProduct(c echo.Context, p models.Product) {
	if h.ES == nil {
		return
	}
	doc, err := json.Marshal(p)
	if err != nil {
		c.Logger().Errorf("es marshal error: %v", err)
		return
	}
	res, err := h.ES.Index(
		h.Index,
		bytes.NewReader(doc),
		h.ES.Index.WithContext(c.Request().Context()),
		h.ES.Index.WithDocumentID(strconv.Itoa(int(p.ID))),
	)
	if err != nil {
		c.Logger().Errorf("es index error: %v", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		c.Logger().Errorf("es index error: %s", res.Status())
	}
}

func (h *ProductHandler) removeFromIndex(c echo.Context, id int) {
	if h.ES == nil {
		return
	}
	res, err := h.ES.Delete(
		h.Index,
		strconv.Itoa(id),
		h.ES.Delete.WithContext(c.Request().Context()),
	)
	if err != nil {
		c.Logger().Errorf("es delete error: %v", err)
		return
	}
	res.Body.Close()
}

type productRequest struct {
	Name          string   `json:"name"`
	Images        string   `json:"images"`
	Unit          string   `json:"unit"`
	Stock         *int     `json:"stock"`
	Price         float64  `json:"price"`
	Discount      *float64 `json:"discount"`
	Description   string   `json:"description"`
	MoreDetails   string   `json:"more_details"`
	Publish       *bool    `json:"publish"`
	CategoryID    uint     `json:"category_id"`
	SubCategoryID uint     `json:"sub_category_id"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.CategoryID == 0 || req.SubCategoryID == 0 {
		return Fail(c, http.StatusBadRequest, "provide name, category_id and sub_category_id")
	}
	if req.Price < 0 || (req.Stock != nil && *req.Stock < 0) {
		return Fail(c, http.StatusBadRequest, "price and stock must not be negative")
	}

	if err := h.DB.First(&models.SubCategory{}, req.SubCategoryID).Error; err != nil {
		return Fail(c, http.StatusNotFound, "subcategory not found")
	}

	publish := true
	if req.Publish != nil {
		publish = *req.Publish
	}
	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}
	discount := 0.0
	if req.Discount != nil {
		discount = *req.Discount
	}

	product := models.Product{
		Name:          req.Name,
		Images:        req.Images,
		Unit:          req.Unit,
		Stock:         stock,
		Price:         req.Price,
		Discount:      discount,
		Description:   req.Description,
		MoreDetails:   req.MoreDetails,
		Publish:       publish,
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to create product")
	}

	h.indexProduct(c, product)
	h.publish(c, map[string]interface{}{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})

	return OK(c, http.StatusCreated, "product created", product)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return Fail(c, http.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		return Fail(c, http.StatusNotFound, "product not found")
	}
	return OK(c, http.StatusOK, "product details", product)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Product{}).Where("publish = ?", true)
	if cat := c.QueryParam("category_id"); cat != "" {
		q = q.Where("category_id = ?", cat)
	}
	if sub := c.QueryParam("sub_category_id"); sub != "" {
		q = q.Where("sub_category_id = ?", sub)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to count products")
	}

	var items []models.Product
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to fetch products")
	}

	return OK(c, http.StatusOK, "product list", map[string]interface{}{
		"items": items,
		"meta": map[string]interface{}{
			"page":        offset/limit + 1,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return Fail(c, http.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		return Fail(c, http.StatusNotFound, "product not found")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Images != "" {
		product.Images = req.Images
	}
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if req.Stock != nil && *req.Stock >= 0 {
		product.Stock = *req.Stock
	}
	if req.Price > 0 {
		product.Price = req.Price
	}
	if req.Discount != nil && *req.Discount >= 0 {
		product.Discount = *req.Discount
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.MoreDetails != "" {
		product.MoreDetails = req.MoreDetails
	}
	if req.Publish != nil {
		product.Publish = *req.Publish
	}
	if req.CategoryID != 0 {
		product.CategoryID = req.CategoryID
	}
	if req.SubCategoryID != 0 {
		product.SubCategoryID = req.SubCategoryID
	}

	if err := h.DB.Save(&product).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to update product")
	}

	h.indexProduct(c, product)
	h.publish(c, map[string]interface{}{
		"type":      "product_updated",
		"productID": product.ID,
	})

	return OK(c, http.StatusOK, "product updated", product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return Fail(c, http.StatusBadRequest, "invalid product id")
	}

	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to delete product")
	}

	h.removeFromIndex(c, id)
	h.publish(c, map[string]interface{}{
		"type":      "product_deleted",
		"productID": id,
	})

	return OK(c, http.StatusOK, "product deleted", nil)
}
