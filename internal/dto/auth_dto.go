package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SignUpRequest struct {
	StoreName string `json:"store_name" validate:"required,min=2,max=100"`
	Name      string `json:"name"       validate:"required,min=2,max=100"`
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateUserRequest struct {
	Name        string          `json:"name"         validate:"required,min=2,max=100"`
	Email       string          `json:"email"        validate:"required,email"`
	Password    string          `json:"password"     validate:"required,min=6"`
	Role        string          `json:"role"         validate:"required,oneof=ADMIN SELLER"`
	MonthlyGoal decimal.Decimal `json:"monthly_goal" validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID            string          `json:"id"`
	StoreID       string          `json:"store_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Role          string          `json:"role"`
	MonthlyGoal   decimal.Decimal `json:"monthly_goal"`
	HasManagerPin bool            `json:"has_manager_pin"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	User         UserResponse `json:"user"`
}
