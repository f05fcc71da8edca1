package user

import (
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"column:password;size:128;not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	AvatarURL    *string   `gorm:"column:avatar_url;size:512" json:"avatarUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public is the projection of a user that may leave the service.
type Public struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	AvatarURL *string   `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Public() Public {
	return Public{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Update holds the profile fields a caller supplied; nil means "leave as is".
type Update struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether no field is present.
func (u Update) Empty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil
}

func (u Update) columns() map[string]any {
	cols := make(map[string]any, 3)
	if u.Username != nil {
		cols["username"] = *u.Username
	}
	if u.Email != nil {
		cols["email"] = *u.Email
	}
	if u.PasswordHash != nil {
		cols["password"] = *u.PasswordHash
	}
	return cols
}
