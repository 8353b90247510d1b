package v1

import (
	"fmt"
	"net/http"

	"github.com/EgorLis/eng-community/internal/domain"
)

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshTokenFromRequest — refresh-токен из тела {"refreshToken": "..."}
func RefreshTokenFromRequest(r *http.Request) (string, error) {
	var body refreshBody
	if err := DecodeJSON(r, &body); err != nil {
		return "", err
	}
	if body.RefreshToken == "" {
		return "", fmt.Errorf("%w: empty refreshToken", domain.ErrBadParams)
	}
	return body.RefreshToken, nil
}
