package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"boostbot/internal/models"
)

const (
	INIT_DATA_EXPIRY = 24 * time.Hour
	TOKEN_EXPIRY     = 24 * time.Hour
)

type CustomClaims struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
	jwt.RegisteredClaims
}

// Authentication exchanges Telegram mini app init data for a signed API token.
type Authentication struct {
	botToken string
	secret   string
	now      func() time.Time
}

func NewAuthentication(botToken, secret string) (*Authentication, error) {
	if secret == "" {
		return nil, errors.New("missing jwt secret")
	}
	return &Authentication{botToken, secret, time.Now}, nil
}

func (authentication *Authentication) ValidateInitData(dataStr string) (*models.UserFromAuth, error) {
	if err := initdata.Validate(dataStr, authentication.botToken, INIT_DATA_EXPIRY); err != nil {
		return nil, err
	}

	data, err := initdata.Parse(dataStr)
	if err != nil {
		return nil, err
	}

	return &models.UserFromAuth{
		ID:           data.User.ID,
		Username:     data.User.Username,
		FirstName:    data.User.FirstName,
		LastName:     data.User.LastName,
		LanguageCode: data.User.LanguageCode,
	}, nil
}

func (authentication *Authentication) CreateToken(user *models.UserFromAuth) (string, error) {
	now := authentication.now()
	claims := CustomClaims{
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		LanguageCode: user.LanguageCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TOKEN_EXPIRY)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(authentication.secret))
}

func (authentication *Authentication) Validate(token string) (*models.UserFromAuth, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		return []byte(authentication.secret), nil
	}

	jwtToken, err := jwt.ParseWithClaims(token, &CustomClaims{}, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(authentication.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := jwtToken.Claims.(*CustomClaims)
	if !ok || claims.ID == 0 {
		return nil, errors.New("invalid token claims")
	}

	return &models.UserFromAuth{
		ID:           claims.ID,
		Username:     claims.Username,
		FirstName:    claims.FirstName,
		LastName:     claims.LastName,
		LanguageCode: claims.LanguageCode,
	}, nil
}
