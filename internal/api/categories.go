package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"instore-backend/internal/database"
	"instore-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *BackendService) ListCategories(r *http.Request) (any, error) {
	var categories []database.Category
	if err := s.db.WithContext(r.Context()).Order("name").Find(&categories).Error; err != nil {
		slog.Error("error listing categories", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving categories")
	}

	results := make([]api.Category, 0, len(categories))
	for _, category := range categories {
		results = append(results, api.Category{Id: category.Id, Name: category.Name})
	}
	return results, nil
}

func (s *BackendService) CreateCategory(r *http.Request) (any, error) {
	req, err := ParseRequest[api.CreateCategoryRequest](r)
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "category name is required")
	}

	ctx := r.Context()

	// Duplicate check is case insensitive, the stored name keeps its casing.
	var existing database.Category
	if err := s.db.WithContext(ctx).Where("UPPER(name) = ?", strings.ToUpper(req.Name)).First(&existing).Error; err == nil {
		return nil, CodedErrorf(http.StatusConflict, "category %s already exists", existing.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("error checking category", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating category")
	}

	category := database.Category{Id: uuid.New(), Name: req.Name}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		slog.Error("error creating category", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating category")
	}

	return api.Category{Id: category.Id, Name: category.Name}, nil
}

// DeleteCategory removes a category along with its products.
func (s *BackendService) DeleteCategory(r *http.Request) (any, error) {
	categoryId, err := URLParamUUID(r, "category_id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var attached int64
	if err := s.db.WithContext(ctx).Model(&database.StoreCategory{}).Where("category_id = ?", categoryId).Count(&attached).Error; err != nil {
		slog.Error("error counting category stores", "category_id", categoryId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting category")
	}
	if attached > 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "category is in use by %d stores", attached)
	}

	result := s.db.WithContext(ctx).Delete(&database.Category{}, "id = ?", categoryId)
	if result.Error != nil {
		slog.Error("error deleting category", "category_id", categoryId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting category")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "category not found")
	}

	return api.MessageResponse{Message: "Category deleted"}, nil
}

type listProductsQuery struct {
	CategoryId uuid.UUID `schema:"category_id"`
}

func productToApi(product database.Product) api.Product {
	result := api.Product{Id: product.Id, Name: product.Name, BrandUrl: product.BrandUrl}
	if product.Category != nil {
		result.Category = product.Category.Name
	}
	return result
}

func (s *BackendService) ListProducts(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[listProductsQuery](r)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(r.Context()).Preload("Category").Order("name")
	if params.CategoryId != uuid.Nil {
		query = query.Where("category_id = ?", params.CategoryId)
	}

	var products []database.Product
	if err := query.Find(&products).Error; err != nil {
		slog.Error("error listing products", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving products")
	}

	results := make([]api.Product, 0, len(products))
	for _, product := range products {
		results = append(results, productToApi(product))
	}
	return results, nil
}

func (s *BackendService) CreateProduct(r *http.Request) (any, error) {
	req, err := ParseRequest[api.CreateProductRequest](r)
	if err != nil {
		return nil, err
	}
	if req.Name == "" || req.CategoryId == uuid.Nil {
		return nil, CodedErrorf(http.StatusBadRequest, "product name and category_id are required")
	}

	ctx := r.Context()

	category, err := s.requireCategory(ctx, req.CategoryId)
	if err != nil {
		return nil, err
	}

	product := database.Product{
		Id:         uuid.New(),
		Name:       req.Name,
		BrandUrl:   req.BrandUrl,
		CategoryId: req.CategoryId,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		slog.Error("error creating product", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating product")
	}
	product.Category = category

	return productToApi(product), nil
}

// CreateProductsBatch inserts many products into one category at once. The
// batch is atomic, one bad entry rejects the whole request.
func (s *BackendService) CreateProductsBatch(r *http.Request) (any, error) {
	req, err := ParseRequest[api.BatchProductsRequest](r)
	if err != nil {
		return nil, err
	}
	if req.CategoryId == uuid.Nil {
		return nil, CodedErrorf(http.StatusBadRequest, "category_id is required")
	}
	if len(req.Products) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "at least one product is required")
	}

	ctx := r.Context()

	if _, err := s.requireCategory(ctx, req.CategoryId); err != nil {
		return nil, err
	}

	products := make([]database.Product, 0, len(req.Products))
	for _, entry := range req.Products {
		if entry.Name == "" {
			return nil, CodedErrorf(http.StatusBadRequest, "every product needs a name")
		}
		products = append(products, database.Product{
			Id:         uuid.New(),
			Name:       entry.Name,
			CategoryId: req.CategoryId,
		})
	}

	if err := s.db.WithContext(ctx).Create(&products).Error; err != nil {
		slog.Error("error creating products batch", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating products")
	}

	results := make([]api.Product, 0, len(products))
	for _, product := range products {
		results = append(results, productToApi(product))
	}
	return results, nil
}

func (s *BackendService) UpdateProduct(r *http.Request) (any, error) {
	productId, err := URLParamUUID(r, "product_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.UpdateProductRequest](r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var product database.Product
	if err := s.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", productId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "product not found")
		}
		slog.Error("error getting product", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving product")
	}

	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.CategoryId != uuid.Nil {
		category, err := s.requireCategory(ctx, req.CategoryId)
		if err != nil {
			return nil, err
		}
		updates["category_id"] = req.CategoryId
		product.Category = category
	}
	if len(updates) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "nothing to update")
	}

	if err := s.db.WithContext(ctx).Model(&product).Updates(updates).Error; err != nil {
		slog.Error("error updating product", "product_id", productId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error updating product")
	}

	return productToApi(product), nil
}

func (s *BackendService) DeleteProduct(r *http.Request) (any, error) {
	productId, err := URLParamUUID(r, "product_id")
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).Delete(&database.Product{}, "id = ?", productId)
	if result.Error != nil {
		slog.Error("error deleting product", "product_id", productId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting product")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "product not found")
	}

	return api.MessageResponse{Message: "Product deleted"}, nil
}

func (s *BackendService) requireCategory(ctx context.Context, categoryId uuid.UUID) (*database.Category, error) {
	var category database.Category
	if err := s.db.WithContext(ctx).First(&category, "id = ?", categoryId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusBadRequest, "category %s does not exist", categoryId)
		}
		slog.Error("error checking category", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error checking category")
	}
	return &category, nil
}
