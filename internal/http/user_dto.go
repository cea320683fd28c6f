package httpapi

import (
	"time"

	"radiohits-backend-go/internal/models"
)

type UserDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Status      string     `json:"status"`
	Roles       []string   `json:"roles"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func toUserDTO(user models.User, roles []string) *UserDTO {
	if roles == nil {
		roles = []string{}
	}
	name := user.Email
	if user.DisplayName != nil && *user.DisplayName != "" {
		name = *user.DisplayName
	}
	return &UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: name,
		Status:      user.Status,
		Roles:       roles,
		LastLoginAt: user.LastLoginAt,
	}
}
