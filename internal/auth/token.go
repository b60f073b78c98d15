package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/jobtrack/internal/model"
)

// Claims はトークンのクレームを表す。
// 標準クレームに加えてユーザーIDとユーザー名を含む。
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"id"`
	Username string `json:"username"`
}

// GenerateToken はHS256署名付きのJWTを発行する。
// 有効期限はttlで指定する（デフォルト設定では1日）。
func GenerateToken(userID, username string, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   userID,
		Username: username,
	})

	return token.SignedString(secret)
}

// ParseToken はトークンの署名と有効期限を検証し、主体を復元する。
// 検証に失敗した場合はForbiddenエラーを返す。
func ParseToken(tokenString string, secret []byte) (*model.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, model.NewForbiddenError()
	}

	return &model.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}
