package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTokenInfoServer はtokeninfoエンドポイントを模したテストサーバーを返す。
func newTokenInfoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") == "" {
			t.Error("id_token query parameter is missing")
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestGoogleVerifier_VerifyAssertion_Success(t *testing.T) {
	server := newTokenInfoServer(t, http.StatusOK, `{
		"aud": "client-123",
		"email": "user@example.com",
		"email_verified": "true",
		"name": "Taro Yamada",
		"picture": "https://lh3.example.com/photo.jpg"
	}`)
	defer server.Close()

	v := NewGoogleVerifier(GoogleVerifierConfig{
		ClientID:     "client-123",
		TokenInfoURL: server.URL,
	})

	claims, err := v.VerifyAssertion(context.Background(), "valid-id-token")
	if err != nil {
		t.Fatalf("VerifyAssertion returned error: %v", err)
	}

	if claims.Email != "user@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "user@example.com")
	}
	if claims.Name != "Taro Yamada" {
		t.Errorf("Name = %q, want %q", claims.Name, "Taro Yamada")
	}
	if claims.Picture != "https://lh3.example.com/photo.jpg" {
		t.Errorf("Picture = %q, want %q", claims.Picture, "https://lh3.example.com/photo.jpg")
	}
}

func TestGoogleVerifier_VerifyAssertion_AudienceMismatch(t *testing.T) {
	server := newTokenInfoServer(t, http.StatusOK, `{
		"aud": "other-client",
		"email": "user@example.com",
		"email_verified": "true"
	}`)
	defer server.Close()

	v := NewGoogleVerifier(GoogleVerifierConfig{
		ClientID:     "client-123",
		TokenInfoURL: server.URL,
	})

	_, err := v.VerifyAssertion(context.Background(), "token-for-other-app")
	if err == nil {
		t.Fatal("expected error for audience mismatch")
	}
	if !strings.Contains(err.Error(), "audience") {
		t.Errorf("error should mention audience: %v", err)
	}
}

func TestGoogleVerifier_VerifyAssertion_UnverifiedEmail(t *testing.T) {
	server := newTokenInfoServer(t, http.StatusOK, `{
		"aud": "client-123",
		"email": "user@example.com",
		"email_verified": "false"
	}`)
	defer server.Close()

	v := NewGoogleVerifier(GoogleVerifierConfig{
		ClientID:     "client-123",
		TokenInfoURL: server.URL,
	})

	_, err := v.VerifyAssertion(context.Background(), "unverified-email-token")
	if err == nil {
		t.Fatal("expected error for unverified email")
	}
}

func TestGoogleVerifier_VerifyAssertion_RejectedToken(t *testing.T) {
	// Googleは無効・期限切れトークンに非200を返す
	server := newTokenInfoServer(t, http.StatusBadRequest, `{"error": "invalid_token"}`)
	defer server.Close()

	v := NewGoogleVerifier(GoogleVerifierConfig{
		ClientID:     "client-123",
		TokenInfoURL: server.URL,
	})

	_, err := v.VerifyAssertion(context.Background(), "expired-token")
	if err == nil {
		t.Fatal("expected error for rejected token")
	}
}

func TestGoogleVerifier_VerifyAssertion_EmptyToken(t *testing.T) {
	v := NewGoogleVerifier(GoogleVerifierConfig{ClientID: "client-123"})

	_, err := v.VerifyAssertion(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty id token")
	}
}

func TestGoogleVerifier_VerifyAssertion_InvalidJSON(t *testing.T) {
	server := newTokenInfoServer(t, http.StatusOK, `not json`)
	defer server.Close()

	v := NewGoogleVerifier(GoogleVerifierConfig{
		ClientID:     "client-123",
		TokenInfoURL: server.URL,
	})

	_, err := v.VerifyAssertion(context.Background(), "some-token")
	if err == nil {
		t.Fatal("expected error for invalid JSON response")
	}
}

func TestNewGoogleVerifier_DefaultsTokenInfoURL(t *testing.T) {
	v := NewGoogleVerifier(GoogleVerifierConfig{ClientID: "client-123"})
	if v.config.TokenInfoURL != defaultGoogleTokenInfoURL {
		t.Errorf("TokenInfoURL = %q, want %q", v.config.TokenInfoURL, defaultGoogleTokenInfoURL)
	}
}
