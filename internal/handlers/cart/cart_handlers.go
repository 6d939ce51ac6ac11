package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/greenbasket/backend/internal/handlers"
	"github.com/greenbasket/backend/internal/models"
	"github.com/greenbasket/backend/internal/mykafka"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer mykafka.Publisher
}

func (h *CartHandler) publish(c echo.Context, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return handlers.Fail(c, http.StatusInternalServerError, "failed to fetch cart")
	}

	return handlers.OK(c, http.StatusOK, "cart items", items)
}

// AddToCart keeps at most one row per (user, product): re-adding an item
// bumps its quantity instead of inserting a second row.
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return handlers.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == 0 {
		return handlers.Fail(c, http.StatusBadRequest, "provide product_id")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		return handlers.Fail(c, http.StatusNotFound, "product not found")
	}

	var item models.CartItem
	tx := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item)
	if tx.Error == nil {
		item.Quantity += req.Quantity
		if err := h.DB.Save(&item).Error; err != nil {
			return handlers.Fail(c, http.StatusInternalServerError, "failed to update cart")
		}
		h.publish(c, map[string]interface{}{
			"type":      "cart_item_added",
			"userID":    userID,
			"productID": req.ProductID,
			"quantity":  item.Quantity,
		})
		return handlers.OK(c, http.StatusOK, "cart updated", item)
	}
	if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return handlers.Fail(c, http.StatusInternalServerError, "failed to read cart")
	}

	item = models.CartItem{
		UserID:    userID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		return handlers.Fail(c, http.StatusInternalServerError, "failed to add to cart")
	}

	h.publish(c, map[string]interface{}{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})
	return handlers.OK(c, http.StatusCreated, "added to cart", item)
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return handlers.Fail(c, http.StatusBadRequest, "invalid cart item id")
	}

	var req struct {
		Quantity uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return handlers.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Quantity < 1 {
		return handlers.Fail(c, http.StatusBadRequest, "quantity must be >= 1")
	}

	var item models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handlers.Fail(c, http.StatusNotFound, "cart item not found")
		}
		return handlers.Fail(c, http.StatusInternalServerError, "failed to read cart")
	}

	item.Quantity = req.Quantity
	if err := h.DB.Save(&item).Error; err != nil {
		return handlers.Fail(c, http.StatusInternalServerError, "failed to update cart")
	}

	h.publish(c, map[string]interface{}{
		"type":      "cart_quantity_updated",
		"userID":    userID,
		"productID": item.ProductID,
		"quantity":  item.Quantity,
	})
	return handlers.OK(c, http.StatusOK, "cart updated", item)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return handlers.Fail(c, http.StatusBadRequest, "invalid cart item id")
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.CartItem{})
	if res.Error != nil {
		return handlers.Fail(c, http.StatusInternalServerError, "failed to remove cart item")
	}
	if res.RowsAffected == 0 {
		return handlers.Fail(c, http.StatusNotFound, "cart item not found")
	}

	h.publish(c, map[string]interface{}{
		"type":   "cart_item_removed",
		"userID": userID,
		"itemID": id,
	})
	return handlers.OK(c, http.StatusOK, "removed from cart", nil)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return handlers.Fail(c, http.StatusInternalServerError, "failed to clear cart")
	}

	h.publish(c, map[string]interface{}{
		"type":   "cart_cleared",
		"userID": userID,
	})
	return handlers.OK(c, http.StatusOK, "cart cleared", nil)
}
