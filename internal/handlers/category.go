package handlers

import (
	"net/http"
	"strconv"

	"github.com/greenbasket/backend/internal/models"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type CategoryHandler struct {
	DB *gorm.DB
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	}
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return Fail(c, http.StatusBadRequest, "provide name")
	}

	category := models.Category{Name: req.Name, Image: req.Image}
	if err := h.DB.Create(&category).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to create category")
	}
	return OK(c, http.StatusCreated, "category created", category)
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	var categories []models.Category
	if err := h.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to fetch categories")
	}
	return OK(c, http.StatusOK, "category list", categories)
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return Fail(c, http.StatusBadRequest, "invalid category id")
	}

	var req struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	}
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}

	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		return Fail(c, http.StatusNotFound, "category not found")
	}

	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Image != "" {
		category.Image = req.Image
	}
	if err := h.DB.Save(&category).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to update category")
	}
	return OK(c, http.StatusOK, "category updated", category)
}

// DeleteCategory removes the category together with its subcategories and
// products, all in one transaction.
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return Fail(c, http.StatusBadRequest, "invalid category id")
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.SubCategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, id).Error
	})
	if txErr != nil {
		return Fail(c, http.StatusInternalServerError, "failed to delete category")
	}
	return OK(c, http.StatusOK, "category deleted", nil)
}

func (h *CategoryHandler) CreateSubCategory(c echo.Context) error {
	var req struct {
		Name       string `json:"name"`
		Image      string `json:"image"`
		CategoryID uint   `json:"category_id"`
	}
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.CategoryID == 0 {
		return Fail(c, http.StatusBadRequest, "provide name and category_id")
	}

	if err := h.DB.First(&models.Category{}, req.CategoryID).Error; err != nil {
		return Fail(c, http.StatusNotFound, "category not found")
	}

	sub := models.SubCategory{Name: req.Name, Image: req.Image, CategoryID: req.CategoryID}
	if err := h.DB.Create(&sub).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to create subcategory")
	}
	return OK(c, http.StatusCreated, "subcategory created", sub)
}

func (h *CategoryHandler) ListSubCategories(c echo.Context) error {
	q := h.DB.Order("name ASC")
	if cat := c.QueryParam("category_id"); cat != "" {
		q = q.Where("category_id = ?", cat)
	}

	var subs []models.SubCategory
	if err := q.Find(&subs).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to fetch subcategories")
	}
	return OK(c, http.StatusOK, "subcategory list", subs)
}

func (h *CategoryHandler) UpdateSubCategory(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return Fail(c, http.StatusBadRequest, "invalid subcategory id")
	}

	var req struct {
		Name       string `json:"name"`
		Image      string `json:"image"`
		CategoryID uint   `json:"category_id"`
	}
	if err := c.Bind(&req); err != nil {
		return Fail(c, http.StatusBadRequest, "invalid request body")
	}

	var sub models.SubCategory
	if err := h.DB.First(&sub, id).Error; err != nil {
		return Fail(c, http.StatusNotFound, "subcategory not found")
	}

	if req.Name != "" {
		sub.Name = req.Name
	}
	if req.Image != "" {
		sub.Image = req.Image
	}
	if req.CategoryID != 0 {
		if err := h.DB.First(&models.Category{}, req.CategoryID).Error; err != nil {
			return Fail(c, http.StatusNotFound, "category not found")
		}
		sub.CategoryID = req.CategoryID
	}
	if err := h.DB.Save(&sub).Error; err != nil {
		return Fail(c, http.StatusInternalServerError, "failed to update subcategory")
	}
	return OK(c, http.StatusOK, "subcategory updated", sub)
}

// DeleteSubCategory removes the subcategory and its products.
func (h *CategoryHandler) DeleteSubCategory(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return Fail(c, http.StatusBadRequest, "invalid subcategory id")
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sub_category_id = ?", id).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SubCategory{}, id).Error
	})
	if txErr != nil {
		return Fail(c, http.StatusInternalServerError, "failed to delete subcategory")
	}
	return OK(c, http.StatusOK, "subcategory deleted", nil)
}
