package api

import (
	"time"

	"github.com/google/uuid"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterStoreRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`

	StoreDetails StoreDetails `json:"store_details"`
	Categories   []string     `json:"categories"`
}

type StoreDetails struct {
	StoreName     string `json:"store_name"`
	Position      string `json:"position"`
	PhoneNumber   string `json:"phone_number"`
	Website       string `json:"website"`
	FacebookPage  string `json:"facebook_page"`
	InstagramPage string `json:"instagram_page"`
	Tiktok        string `json:"tiktok"`
	City          string `json:"city"`
	Country       string `json:"country"`
	Continent     string `json:"continent"`
}

type RegisterStoreResponse struct {
	Message string    `json:"message"`
	UserId  uuid.UUID `json:"user_id"`
	StoreId uuid.UUID `json:"store_id"`
}

type SignupAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type Store struct {
	Id            uuid.UUID `json:"id"`
	StoreName     string    `json:"store_name"`
	StoreEmail    string    `json:"store_email"`
	Position      string    `json:"position"`
	PhoneNumber   string    `json:"phone_number"`
	Website       string    `json:"website,omitempty"`
	FacebookPage  string    `json:"facebook_page,omitempty"`
	InstagramPage string    `json:"instagram_page,omitempty"`
	Tiktok        string    `json:"tiktok,omitempty"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Continent     string    `json:"continent"`
	Verified      bool      `json:"verified"`
	Categories    []string  `json:"categories,omitempty"`
}

type Pagination struct {
	Page        int   `json:"page"`
	PageSize    int   `json:"page_size"`
	TotalStores int64 `json:"total_stores"`
	TotalPages  int   `json:"total_pages"`
}

type ListStoresResponse struct {
	Stores     []Store    `json:"stores"`
	Pagination Pagination `json:"pagination"`
}

type Category struct {
	Id   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

type Product struct {
	Id       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	BrandUrl string    `json:"brand_url,omitempty"`
	Category string    `json:"category,omitempty"`
}

type CreateProductRequest struct {
	Name       string    `json:"name"`
	BrandUrl   string    `json:"brand_url"`
	CategoryId uuid.UUID `json:"category_id"`
}

type UpdateProductRequest struct {
	Name       string    `json:"name"`
	CategoryId uuid.UUID `json:"category_id"`
}

type BatchProductEntry struct {
	Name string `json:"name"`
}

type BatchProductsRequest struct {
	CategoryId uuid.UUID           `json:"category_id"`
	Products   []BatchProductEntry `json:"products"`
}

type Ad struct {
	Id          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageUrl    string    `json:"image_url,omitempty"`
	Link        string    `json:"link,omitempty"`
	Position    string    `json:"position"`
}

type LatestPost struct {
	Id       uuid.UUID `json:"id"`
	Subject  string    `json:"subject"`
	Content  string    `json:"content"`
	Link     string    `json:"link,omitempty"`
	ImageUrl string    `json:"image_url,omitempty"`
}

type NewsletterContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language,omitempty"`
}

type Newsletter struct {
	Id         uuid.UUID           `json:"id"`
	Contents   []NewsletterContent `json:"contents"`
	Images     []string            `json:"images"`
	Recipients []string            `json:"recipients"`
}

type SendNewsletterRequest struct {
	Language string `json:"language"`
}

type Premiere struct {
	Id          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Url         string    `json:"url"`
}

type CreatePremiereRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Url         string `json:"url"`
}

type StoreWindow struct {
	Id          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	Url         string    `json:"url"`
	MediaUrl    string    `json:"media_url,omitempty"`
}

type Video struct {
	Id           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	LogoUrl      string    `json:"logo_url,omitempty"`
	Url          string    `json:"url"`
	CreationTime time.Time `json:"creation_time"`
}

type CreateVideoResponse struct {
	Message string `json:"message"`
	Video   Video  `json:"video"`
}

type ProcessVideoResponse struct {
	Message string `json:"message"`
}
