package domain

import "github.com/golang-jwt/jwt/v5"

// CustomClaims несет только идентификатор актора: роль всегда перечитывается
// из реестра, чтобы смена роли действовала без перевыпуска токена.
type CustomClaims struct {
	ActorID int64 `json:"actor_id"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64        `json:"expires_in"`
	Actor       ActorSummary `json:"user"`
}

type ActorSummary struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// GoldFeatures — статический набор привилегий GOLD-уровня.
type GoldFeatures struct {
	ExclusiveDiscounts bool     `json:"exclusive_discounts"`
	PriorityBooking    bool     `json:"priority_booking"`
	SpecialAmenities   []string `json:"special_amenities"`
	LoyaltyPoints      int      `json:"loyalty_points"`
}

func DefaultGoldFeatures() GoldFeatures {
	return GoldFeatures{
		ExclusiveDiscounts: true,
		PriorityBooking:    true,
		SpecialAmenities: []string{
			"Complimentary breakfast",
			"Late checkout",
			"Room upgrade priority",
			"Spa access",
		},
		LoyaltyPoints: 1000,
	}
}
