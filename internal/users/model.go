package users

import "time"

type User struct {
	ID                 int64     `json:"userId"`
	NomeCompleto       string    `json:"nomeCompleto"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	LocationPreference string    `json:"locationPreference"`
	SubscribedAlerts   []string  `json:"subscribedAlerts"`
	Role               UserRole  `json:"role"`
	CreatedAt          time.Time `json:"createdAt"`
}

type RegisterInput struct {
	NomeCompleto       string   `validate:"required,notblank"`
	Email              string   `validate:"required,notblank,emailaddr"`
	Password           string   `validate:"required,notblank,min=6,max=72"`
	LocationPreference string   `validate:"max=255"`
	SubscribedAlerts   []string `validate:"max=50,dive,max=64"`
}

type LoginInput struct {
	Email    string
	Password string
}

type UpdateInput struct {
	NomeCompleto       string   `validate:"required,notblank"`
	Email              string   `validate:"required,notblank,emailaddr"`
	LocationPreference string   `validate:"max=255"`
	SubscribedAlerts   []string `validate:"max=50,dive,max=64"`
	Role               *string  `validate:"omitempty,max=64"`
}
