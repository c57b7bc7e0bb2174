package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/rideshare/internal/model"
)

// DefaultTokenTTL はセッショントークンのデフォルト有効期間。
const DefaultTokenTTL = 24 * time.Hour

// Claims はセッショントークンに埋め込むクレーム。
// subにアカウントID、roleに種別を持つ。
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer は署名付きセッショントークンの発行と検証を行う。
// 検証はトークンと署名鍵のみで完結し、ストア参照を必要としない。
// 有効期限前の失効手段は持たない（設計上の制限）。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。
// 署名鍵は構築時に注入し、呼び出しごとの環境変数参照は行わない。
// ttlが0以下の場合はDefaultTokenTTLを使用する。
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue は指定アカウントのセッショントークンを発行する。
func (i *TokenIssuer) Issue(identityID string, role model.Role) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンを検証し、アカウントIDと種別を返す。
// 失敗理由は期限切れ・署名不正・形式不正のAPIErrorとして区別される。
// 呼び出し側はこの区別により再ログイン要求と不正リクエストを分岐できる。
func (i *TokenIssuer) Verify(tokenString string) (string, model.Role, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", "", model.NewExpiredTokenError()
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", "", model.NewInvalidSignatureError()
		default:
			return "", "", model.NewMalformedTokenError()
		}
	}
	if !token.Valid {
		return "", "", model.NewInvalidSignatureError()
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return "", "", model.NewMalformedTokenError()
	}

	return claims.Subject, claims.Role, nil
}
