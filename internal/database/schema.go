package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleAdmin    string = "ADMIN"
	RoleStore    string = "STORE"
	RoleNonStore string = "NON_STORE"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name         string
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"size:20;not null"`

	CreationTime time.Time
}

type Store struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId uuid.UUID `gorm:"type:uuid;not null"`
	User   *User     `gorm:"foreignKey:UserId"`

	StoreName   string `gorm:"not null"`
	StoreEmail  string `gorm:"not null"`
	Position    string
	PhoneNumber string

	Website       sql.NullString
	FacebookPage  sql.NullString
	InstagramPage sql.NullString
	Tiktok        sql.NullString

	City      string
	Country   string `gorm:"index"`
	Continent string

	Verified     bool `gorm:"default:false"`
	CreationTime time.Time

	Categories []StoreCategory `gorm:"foreignKey:StoreId;constraint:OnDelete:CASCADE"`
}

type Category struct {
	Id   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"uniqueIndex;not null"`

	Products []Product `gorm:"foreignKey:CategoryId;constraint:OnDelete:CASCADE"`
}

type StoreCategory struct {
	StoreId    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryId uuid.UUID `gorm:"type:uuid;primaryKey"`

	Category *Category `gorm:"foreignKey:CategoryId"`
}

type Product struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name     string `gorm:"not null"`
	BrandUrl string

	CategoryId uuid.UUID `gorm:"type:uuid;not null"`
	Category   *Category `gorm:"foreignKey:CategoryId"`
}

type Ad struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Title       string `gorm:"not null"`
	Description string
	ImageUrl    string
	Link        string
	Position    string `gorm:"index;not null"`

	CreationTime time.Time
}

type LatestPost struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Subject  string
	Content  string
	Link     string
	ImageUrl string

	CreationTime time.Time
}

type Newsletter struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Contents   datatypes.JSON // [{"title":"…","description":"…"},…]
	Images     datatypes.JSON // ["https://…",…]
	Recipients datatypes.JSON // ["a@b.com",…]

	CreationTime time.Time
}

type Premiere struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Title       string
	Description string
	Url         string

	CreationTime time.Time
}

type StoreWindow struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Title       string `gorm:"not null"`
	Description string `gorm:"not null"`
	Content     string
	Url         string `gorm:"not null"`
	MediaUrl    string

	CreationTime time.Time
}

// Video is the catalog entity; rows here are independent of the
// process-video pipeline, which persists nothing.
type Video struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Title   string `gorm:"not null"`
	LogoUrl string
	Url     string `gorm:"not null"`
	// ObjectKey is set when the video lives in our bucket, empty for
	// externally hosted entries.
	ObjectKey string

	CreationTime time.Time
}
