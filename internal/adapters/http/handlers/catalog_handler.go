package handlers

import (
	"errors"

	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves service categories and products
type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCategories
// @Summary List service categories
// @Description Inactive categories are only listed for staff
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Response
// @Router /categories [get]
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalogService.ListCategories(c.Context(), callerCan(c, domain.ActionManageCatalog))
	if err != nil {
		return handleError(c, err, "Failed to list categories")
	}
	return response.Success(c, "Categories retrieved successfully", categories)
}

// GetCategory
// @Summary Get a service category
// @Tags Catalog
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /categories/{id} [get]
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid category ID")
	}

	category, err := h.catalogService.GetCategory(c.Context(), id, callerCan(c, domain.ActionManageCatalog))
	if err != nil {
		return catalogError(c, err, "Failed to get category")
	}
	return response.Success(c, "Category retrieved successfully", category)
}

// RequiredFields
// @Summary Product fields required by a category
// @Tags Catalog
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} response.Response
// @Router /categories/{id}/required-fields [get]
func (h *CatalogHandler) RequiredFields(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid category ID")
	}

	out, err := h.catalogService.RequiredFields(c.Context(), id)
	if err != nil {
		return catalogError(c, err, "Failed to get required fields")
	}
	return response.Success(c, "Required fields retrieved successfully", out)
}

// CreateCategory
// @Summary Create a service category
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateCategoryInput true "Category"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /categories [post]
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var input services.CreateCategoryInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to create category")
	}

	category, err := h.catalogService.CreateCategory(c.Context(), &input)
	if err != nil {
		return catalogError(c, err, "Failed to create category")
	}
	return response.Created(c, "Category created successfully", category)
}

// UpdateCategory
// @Summary Update a service category
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param body body services.UpdateCategoryInput true "Fields to change"
// @Success 200 {object} response.Response
// @Router /categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid category ID")
	}

	var input services.UpdateCategoryInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to update category")
	}

	category, err := h.catalogService.UpdateCategory(c.Context(), id, &input)
	if err != nil {
		return catalogError(c, err, "Failed to update category")
	}
	return response.Success(c, "Category updated successfully", category)
}

// DeleteCategory
// @Summary Delete a service category
// @Description Refused while products still reference the category
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid category ID")
	}

	if err := h.catalogService.DeleteCategory(c.Context(), id); err != nil {
		return catalogError(c, err, "Failed to delete category")
	}
	return response.Success(c, "Category deleted successfully", nil)
}

// ListProducts
// @Summary List products
// @Description Published products only, unless the caller manages the catalog
// @Tags Catalog
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param category_id query int false "Filter by category"
// @Param search query string false "Search by name"
// @Success 200 {object} response.Response
// @Router /products [get]
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	input := &services.ListProductsInput{
		CategoryID:      queryUint(c, "category_id"),
		Search:          c.Query("search"),
		IncludeUnlisted: callerCan(c, domain.ActionManageCatalog),
	}

	result, err := h.catalogService.ListProducts(c.Context(), input, pagination.GetParams(c))
	if err != nil {
		return handleError(c, err, "Failed to list products")
	}
	return response.Success(c, "Products retrieved successfully", result)
}

// GetProduct
// @Summary Get a product
// @Tags Catalog
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /products/{id} [get]
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid product ID")
	}

	product, err := h.catalogService.GetProduct(c.Context(), id, callerCan(c, domain.ActionManageCatalog))
	if err != nil {
		return catalogError(c, err, "Failed to get product")
	}
	return response.Success(c, "Product retrieved successfully", product)
}

// CreateProduct
// @Summary Create a product
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateProductInput true "Product"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /products [post]
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	userID, _, _ := currentUser(c)

	var input services.CreateProductInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to create product")
	}

	product, err := h.catalogService.CreateProduct(c.Context(), userID, &input)
	if err != nil {
		return catalogError(c, err, "Failed to create product")
	}
	return response.Created(c, "Product created successfully", product)
}

// UpdateProduct
// @Summary Update a product
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param body body services.UpdateProductInput true "Fields to change"
// @Success 200 {object} response.Response
// @Router /products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid product ID")
	}

	var input services.UpdateProductInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to update product")
	}

	product, err := h.catalogService.UpdateProduct(c.Context(), id, &input)
	if err != nil {
		return catalogError(c, err, "Failed to update product")
	}
	return response.Success(c, "Product updated successfully", product)
}

// DeleteProduct
// @Summary Delete a product
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} response.Response
// @Router /products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid product ID")
	}

	if err := h.catalogService.DeleteProduct(c.Context(), id); err != nil {
		return catalogError(c, err, "Failed to delete product")
	}
	return response.Success(c, "Product deleted successfully", nil)
}

func catalogError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrCategoryNotFound):
		return response.NotFound(c, "Category not found")
	case errors.Is(err, services.ErrProductNotFound):
		return response.NotFound(c, "Product not found")
	case errors.Is(err, services.ErrCategoryNameTaken):
		return response.Conflict(c, "A category with this name already exists")
	case errors.Is(err, services.ErrProductNameTaken):
		return response.Conflict(c, "A product with this name already exists")
	case errors.Is(err, services.ErrCategoryInUse):
		return response.Conflict(c, "Category still has products")
	default:
		return handleError(c, err, fallback)
	}
}
