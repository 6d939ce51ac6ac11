package handlers

import (
	"net/http"
	"strconv"

	"github.com/greenbasket/backend/internal/models"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type AddressHandler struct {
	DB *gorm.DB
}

type addressRequest struct {
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Pincode     string `json:"pincode"`
	Mobile      string `json:"mobile"`
}

func (h *AddressHandler) Create(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.AddressLine == "" {
		return Fail(c, http.StatusBadRequest, "provide address_line")
	}

	address := models.Address{
		UserID:      userID,
		AddressLine: req.AddressLine,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		Pincode:     req.Pincode,
		Mobile:      req.Mobile,
		Status:      true,
	}
	if err := h.DB.Create(&address).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to create address")
	}

	return OK(c, http.StatusCreated, "address created", address)
}

func (h *AddressHandler) List(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var addresses []models.Address
	if err := h.DB.Where("user_id = ? AND status = ?", userID, true).
		Order("id ASC").Find(&addresses).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to fetch addresses")
	}

	return OK(c, http.StatusOK, "address list", addresses)
}

func (h *AddressHandler) Update(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return Fail(c, http.StatusBadRequest, "invalid address id")
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}

	var address models.Address
	if err := h.DB.Where("id = ? AND user_id = ? AND status = ?", id, userID, true).
		First(&address).Error; err != nil {
		return Fail(c, http.StatusNotFound, "address not found")
	}

	if req.AddressLine != "" {
		address.AddressLine = req.AddressLine
	}
	if req.City != "" {
		address.City = req.City
	}
	if req.State != "" {
		address.State = req.State
	}
	if req.Country != "" {
		address.Country = req.Country
	}
	if req.Pincode != "" {
		address.Pincode = req.Pincode
	}
	if req.Mobile != "" {
		address.Mobile = req.Mobile
	}

	if err := h.DB.Save(&address).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to update address")
	}

	return OK(c, http.StatusOK, "address updated", address)
}

// Disable flips the status flag instead of deleting, so orders keep pointing
// at a real row.
func (h *AddressHandler) Disable(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return Fail(c, http.StatusBadRequest, "invalid address id")
	}

	res := h.DB.Model(&models.Address{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", false)
	if res.Error != nil {
		return Fail(c, http.StatusInternalServerError, "failed to remove address")
	}
	if res.RowsAffected == 0 {
		return Fail(c, http.StatusNotFound, "address not found")
	}

	return OK(c, http.StatusOK, "address removed", nil)
}
