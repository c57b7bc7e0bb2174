// Package auth は認証情報のハッシュ化、セッショントークン、
// 外部IdPアサーション検証を提供する。
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptySecret は空のシークレットに対するハッシュ化要求を表す。
var ErrEmptySecret = errors.New("secret is empty after trimming")

// ErrHashingFailed はハッシュ化処理自体の失敗を表す。
// 「不一致」とは区別され、呼び出し側は内部エラーとして扱う。
var ErrHashingFailed = errors.New("hashing failed")

// PasswordHasher はbcryptによるパスワードの一方向ハッシュ化を提供する。
// 平文シークレットは永続化もログ出力もしない。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はデフォルトコストのPasswordHasherを生成する。
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcrypt.DefaultCost}
}

// Hash は平文シークレットをbcryptハッシュに変換する。
// トリム後に空のシークレットはErrEmptySecretを返す。
// ハッシュ化の失敗はErrHashingFailedにラップして返す。
func (h *PasswordHasher) Hash(secret string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", ErrEmptySecret
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashingFailed, err)
	}

	return string(bytes), nil
}

// Verify は平文シークレットとハッシュを照合する。
// 不一致は(false, nil)、照合処理自体の失敗はエラーとして区別して返す。
func (h *PasswordHasher) Verify(secret, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to compare password hash: %w", err)
}
