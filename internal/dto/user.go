package dto

// ── user ──

// UserResponse the caller's own profile
type UserResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	StoreID      string `json:"store_id"`
	HasPushToken bool   `json:"has_push_token"`
}
