package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"instore-backend/internal/auth"
	"instore-backend/internal/database"
	"instore-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// RegisterStore creates a user account and, for store owners, the store
// profile with its category links. New stores start unverified.
func (s *BackendService) RegisterStore(r *http.Request) (any, error) {
	req, err := ParseRequest[api.RegisterStoreRequest](r)
	if err != nil {
		return nil, err
	}

	if !emailPattern.MatchString(req.Email) {
		return nil, CodedErrorf(http.StatusBadRequest, "a valid email address is required")
	}
	if len(req.Password) < 8 {
		return nil, CodedErrorf(http.StatusBadRequest, "password must be at least 8 characters")
	}

	role := req.Role
	if role == "" {
		role = database.RoleStore
	}
	if role != database.RoleStore && role != database.RoleNonStore {
		return nil, CodedErrorf(http.StatusBadRequest, "role must be %s or %s", database.RoleStore, database.RoleNonStore)
	}
	if role == database.RoleStore && req.StoreDetails.StoreName == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "store_details.store_name is required for store accounts")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("error hashing password", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create account")
	}

	ctx := r.Context()

	user := database.User{
		Id:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		CreationTime: time.Now(),
	}

	var store database.Store

	err = s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		var existing database.User
		if err := txn.Where("email = ?", req.Email).First(&existing).Error; err == nil {
			return CodedErrorf(http.StatusConflict, "an account with email %s already exists", req.Email)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := txn.Create(&user).Error; err != nil {
			return err
		}

		if role != database.RoleStore {
			return nil
		}

		store = database.Store{
			Id:            uuid.New(),
			UserId:        user.Id,
			StoreName:     req.StoreDetails.StoreName,
			StoreEmail:    req.Email,
			Position:      req.StoreDetails.Position,
			PhoneNumber:   req.StoreDetails.PhoneNumber,
			Website:       nullable(req.StoreDetails.Website),
			FacebookPage:  nullable(req.StoreDetails.FacebookPage),
			InstagramPage: nullable(req.StoreDetails.InstagramPage),
			Tiktok:        nullable(req.StoreDetails.Tiktok),
			City:          req.StoreDetails.City,
			Country:       req.StoreDetails.Country,
			Continent:     req.StoreDetails.Continent,
			CreationTime:  time.Now(),
		}
		if err := txn.Create(&store).Error; err != nil {
			return err
		}

		for _, name := range req.Categories {
			var category database.Category
			if err := txn.Where("name = ?", name).First(&category).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				category = database.Category{Id: uuid.New(), Name: name}
				if err := txn.Create(&category).Error; err != nil {
					return err
				}
			}
			link := database.StoreCategory{StoreId: store.Id, CategoryId: category.Id}
			if err := txn.Create(&link).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		var cerr *codedError
		if errors.As(err, &cerr) {
			return nil, err
		}
		slog.Error("error registering store", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create account")
	}

	slog.Info("registered new account", "user_id", user.Id, "role", role)
	return api.RegisterStoreResponse{Message: "Account created", UserId: user.Id, StoreId: store.Id}, nil
}

// SignupAdmin creates an administrator account.
func (s *BackendService) SignupAdmin(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SignupAdminRequest](r)
	if err != nil {
		return nil, err
	}

	if !emailPattern.MatchString(req.Email) {
		return nil, CodedErrorf(http.StatusBadRequest, "a valid email address is required")
	}
	if len(req.Password) < 8 {
		return nil, CodedErrorf(http.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("error hashing password", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create account")
	}

	ctx := r.Context()

	var existing database.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, CodedErrorf(http.StatusConflict, "an account with email %s already exists", req.Email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("error checking for existing account", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create account")
	}

	user := database.User{
		Id:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         database.RoleAdmin,
		CreationTime: time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		slog.Error("error creating admin account", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create account")
	}

	slog.Info("created admin account", "user_id", user.Id)
	return api.MessageResponse{Message: "Admin account created"}, nil
}

// Login verifies credentials and returns a signed bearer token.
func (s *BackendService) Login(r *http.Request) (any, error) {
	req, err := ParseRequest[api.LoginRequest](r)
	if err != nil {
		return nil, err
	}

	var user database.User
	if err := s.db.WithContext(r.Context()).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusUnauthorized, "invalid email or password")
		}
		slog.Error("error looking up user", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "login failed")
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, CodedErrorf(http.StatusUnauthorized, "invalid email or password")
	}

	token, err := s.tokens.IssueToken(user.Id, user.Email, user.Role)
	if err != nil {
		slog.Error("error issuing token", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "login failed")
	}

	return api.LoginResponse{Message: "Login successful", Token: token}, nil
}
