package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// FederatedClaims は外部IdPの検証済みアサーションから得られるクレーム。
type FederatedClaims struct {
	Email   string
	Name    string
	Picture string
}

// AssertionVerifier は外部IdP発行のIDトークンを検証するインターフェース。
type AssertionVerifier interface {
	// VerifyAssertion はIDトークンを検証し、検証済みクレームを返す。
	// 暗号的検証・有効期限のいずれの失敗もエラーとして返す。
	VerifyAssertion(ctx context.Context, idToken string) (*FederatedClaims, error)
}

// GoogleVerifierConfig はGoogle IDトークン検証の設定。
type GoogleVerifierConfig struct {
	ClientID string

	// テスト用にオーバーライド可能なURL
	TokenInfoURL string
}

// GoogleVerifier はGoogleのtokeninfoエンドポイントに検証を委譲する。
// 公開鍵検証・有効期限チェックはGoogle側で行われ、ここでは
// audienceの一致とメールアドレスの検証済みフラグのみを追加確認する。
type GoogleVerifier struct {
	config GoogleVerifierConfig
	client *http.Client
}

// NewGoogleVerifier はGoogleVerifierを生成する。
func NewGoogleVerifier(config GoogleVerifierConfig) *GoogleVerifier {
	if config.TokenInfoURL == "" {
		config.TokenInfoURL = defaultGoogleTokenInfoURL
	}
	return &GoogleVerifier{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// googleTokenInfo はtokeninfoエンドポイントのレスポンス。
type googleTokenInfo struct {
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// VerifyAssertion はGoogle IDトークンをtokeninfoエンドポイントで検証する。
func (v *GoogleVerifier) VerifyAssertion(ctx context.Context, idToken string) (*FederatedClaims, error) {
	if idToken == "" {
		return nil, fmt.Errorf("empty id token")
	}

	endpoint := v.config.TokenInfoURL + "?" + url.Values{"id_token": {idToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokeninfo response: %w", err)
	}

	// Googleは無効・期限切れトークンに非200を返す
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assertion rejected with status %d: %s", resp.StatusCode, string(body))
	}

	var info googleTokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse tokeninfo response: %w", err)
	}

	if info.Aud != v.config.ClientID {
		return nil, fmt.Errorf("audience mismatch")
	}
	if info.Email == "" || info.EmailVerified != "true" {
		return nil, fmt.Errorf("email not verified in assertion")
	}

	return &FederatedClaims{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

// compile-time interface check
var _ AssertionVerifier = (*GoogleVerifier)(nil)
