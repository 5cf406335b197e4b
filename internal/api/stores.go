package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"instore-backend/internal/database"
	"instore-backend/pkg/api"

	"gorm.io/gorm"
)

type listStoresQuery struct {
	Category string `schema:"category"`
	Country  string `schema:"country"`
	Page     int    `schema:"page"`
	PageSize int    `schema:"page_size"`
}

const defaultPageSize = 10

func storeToApi(store database.Store) api.Store {
	categories := make([]string, 0, len(store.Categories))
	for _, link := range store.Categories {
		if link.Category != nil {
			categories = append(categories, link.Category.Name)
		}
	}

	return api.Store{
		Id:            store.Id,
		StoreName:     store.StoreName,
		StoreEmail:    store.StoreEmail,
		Position:      store.Position,
		PhoneNumber:   store.PhoneNumber,
		Website:       store.Website.String,
		FacebookPage:  store.FacebookPage.String,
		InstagramPage: store.InstagramPage.String,
		Tiktok:        store.Tiktok.String,
		City:          store.City,
		Country:       store.Country,
		Continent:     store.Continent,
		Verified:      store.Verified,
		Categories:    categories,
	}
}

// ListStores returns verified stores, filtered by category name and country,
// paginated.
func (s *BackendService) ListStores(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[listStoresQuery](r)
	if err != nil {
		return nil, err
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}

	// Count and Find each get their own query: gorm chains share statement
	// state, so reusing the Distinct("stores.id") count query would make the
	// Find select only ids.
	filtered := func() *gorm.DB {
		query := s.db.WithContext(r.Context()).Model(&database.Store{}).Where("stores.verified = ?", true)
		if params.Country != "" {
			query = query.Where("stores.country = ?", params.Country)
		}
		if params.Category != "" {
			query = query.
				Joins("JOIN store_categories ON store_categories.store_id = stores.id").
				Joins("JOIN categories ON categories.id = store_categories.category_id").
				Where("categories.name = ?", params.Category)
		}
		return query
	}

	var total int64
	if err := filtered().Distinct("stores.id").Count(&total).Error; err != nil {
		slog.Error("error counting stores", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving stores")
	}

	var stores []database.Store
	err = filtered().Distinct().
		Preload("Categories.Category").
		Order("stores.store_name").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&stores).Error
	if err != nil {
		slog.Error("error listing stores", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving stores")
	}

	results := make([]api.Store, 0, len(stores))
	for _, store := range stores {
		results = append(results, storeToApi(store))
	}

	totalPages := int((total + int64(params.PageSize) - 1) / int64(params.PageSize))

	return api.ListStoresResponse{
		Stores: results,
		Pagination: api.Pagination{
			Page:        params.Page,
			PageSize:    params.PageSize,
			TotalStores: total,
			TotalPages:  totalPages,
		},
	}, nil
}

// ListUnverifiedStores returns stores awaiting review.
func (s *BackendService) ListUnverifiedStores(r *http.Request) (any, error) {
	var stores []database.Store
	err := s.db.WithContext(r.Context()).
		Where("verified = ?", false).
		Preload("Categories.Category").
		Order("creation_time").
		Find(&stores).Error
	if err != nil {
		slog.Error("error listing unverified stores", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving stores")
	}

	results := make([]api.Store, 0, len(stores))
	for _, store := range stores {
		results = append(results, storeToApi(store))
	}
	return results, nil
}

// VerifyStore marks a store as reviewed and emails the owner. The email is
// best effort, verification stands even if it cannot be delivered.
func (s *BackendService) VerifyStore(r *http.Request) (any, error) {
	storeId, err := URLParamUUID(r, "store_id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var store database.Store
	if err := s.db.WithContext(ctx).First(&store, "id = ?", storeId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "store not found")
		}
		slog.Error("error getting store", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving store")
	}

	if err := s.db.WithContext(ctx).Model(&store).Update("verified", true).Error; err != nil {
		slog.Error("error verifying store", "store_id", storeId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error verifying store")
	}

	if store.StoreEmail != "" {
		body := fmt.Sprintf("<p>Your store %s has been verified and is now listed.</p>", store.StoreName)
		if err := s.mailer.Send([]string{store.StoreEmail}, "Your store is verified", body); err != nil {
			slog.Warn("error sending verification email", "store_id", storeId, "error", err)
		}
	}

	slog.Info("store verified", "store_id", storeId)
	return api.MessageResponse{Message: "Store verified"}, nil
}
