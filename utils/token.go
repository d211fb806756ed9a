package utils

import (
	"fmt"
	"os"

	"github.com/dgrijalva/jwt-go"
)

type JwtCustomClaim struct {
	ID        int    `json:"id"`
	Role      string `json:"role"`
	CompanyId string `json:"company_id,omitempty"`
	jwt.StandardClaims
}

func jwtSecret() []byte {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return []byte("BizBooks-Secret")
	}
	return []byte(secret)
}

// JwtValidate parses an HMAC-signed token carrying JwtCustomClaim.
// Token issuance lives in the auth service.
func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return jwtSecret(), nil
	})
}
