package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login exchanges admin credentials for a bearer token and installs it on c.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &out); err != nil {
		return LoginResponse{}, err
	}
	if out.Token == "" {
		return LoginResponse{}, errors.New("api: login returned no token")
	}
	c.SetToken(out.Token)
	return out, nil
}

// TokenExpiry reads the exp claim of a JWT without checking its signature.
// ok is false when the token carries no exp.
func TokenExpiry(token string) (exp time.Time, ok bool, err error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, fmt.Errorf("api: parse token: %w", err)
	}
	at, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("api: token exp: %w", err)
	}
	if at == nil {
		return time.Time{}, false, nil
	}
	return at.Time, true, nil
}
