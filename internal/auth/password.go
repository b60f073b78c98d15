// Package auth はパスワード認証とトークン発行・検証を提供する。
package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost はパスワードハッシュのコストパラメータ。
const bcryptCost = 10

// HashPassword はパスワードのbcryptハッシュを生成する。
// 平文パスワードは保存もログ出力もしない。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword はパスワードがハッシュと一致するかを検証する。
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
