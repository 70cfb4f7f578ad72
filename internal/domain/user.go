package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	Email        string  `gorm:"uniqueIndex;size:191" json:"email"`
	Name         string  `gorm:"size:64" json:"name"`
	PasswordHash string  `gorm:"size:191" json:"-"` // OAuth 账号为空
	ImageURL     *string `gorm:"size:512" json:"imageUrl,omitempty"`
	Role         string  `gorm:"size:16;default:user" json:"role"` // "user"/"admin"
	RefreshToken *string `gorm:"size:512" json:"-"`                // 当前唯一有效的 refresh token

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// Profile 对外安全字段投影，响应里永远用它，不直接回传 User
type Profile struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl,omitempty"`
	Role     string  `json:"role"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, Name: u.Name, ImageURL: u.ImageURL, Role: u.Role}
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	SetRefreshToken(ctx context.Context, id string, token *string) error
	List(ctx context.Context, offset, limit int) ([]User, int64, error)
	SoftDelete(ctx context.Context, id string) error
}
