package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/rideshare/internal/account"
	"github.com/hitoshi/rideshare/internal/auth"
	"github.com/hitoshi/rideshare/internal/model"
)

// AccountRegistrar は登録ハンドラーが必要とするサービスインターフェース。
type AccountRegistrar interface {
	Register(ctx context.Context, role model.Role, in account.RegisterInput) (*model.Identity, error)
}

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	LoginWithGoogle(ctx context.Context, assertion string) (*auth.LoginResult, error)
}

// authMetricsRecorder は認証関連メトリクスの記録インターフェース。
type authMetricsRecorder interface {
	RecordRegistration(role string)
	RecordLogin(method string, outcome string)
}

// AuthHandler は登録・認証関連のHTTPハンドラー。
type AuthHandler struct {
	accounts AccountRegistrar
	service  AuthServiceInterface
	metrics  authMetricsRecorder
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnil可。
func NewAuthHandler(accounts AccountRegistrar, service AuthServiceInterface, metrics authMetricsRecorder) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		service:  service,
		metrics:  metrics,
	}
}

// registerRequest はアカウント登録リクエストのボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// loginRequest はローカルログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// googleLoginRequest は外部IdPログインリクエストのボディ。
type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	Token string           `json:"token"`
	User  identityResponse `json:"user"`
}

// RegisterPassenger は乗客アカウントの登録を処理する。
// POST /auth/register/passenger
func (h *AuthHandler) RegisterPassenger(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, model.RolePassenger)
}

// RegisterDriver はドライバーアカウントの登録を処理する。
// POST /auth/register/driver
func (h *AuthHandler) RegisterDriver(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, model.RoleDriver)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request, role model.Role) {
	var req registerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	identity, err := h.accounts.Register(r.Context(), role, account.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRegistration(string(role))
	}

	writeJSON(w, http.StatusCreated, toIdentityResponse(identity))
}

// Login はローカルパスワード認証を処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recordLogin("password", err)
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLogin("password", "success")
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  toIdentityResponse(result.Identity),
	})
}

// LoginWithGoogle は外部IdPアサーションによる認証を処理する。
// POST /auth/google
func (h *AuthHandler) LoginWithGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.IDToken == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("id_token", "必須項目です"))
		return
	}

	result, err := h.service.LoginWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		h.recordLogin("google", err)
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLogin("google", "success")
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  toIdentityResponse(result.Identity),
	})
}

// recordLogin はログイン失敗を結果ラベル付きで記録する。
func (h *AuthHandler) recordLogin(method string, err error) {
	if h.metrics == nil {
		return
	}
	outcome := "error"
	if apiErr, ok := err.(*model.APIError); ok {
		switch apiErr.Code {
		case model.ErrCodeWrongPassword:
			outcome = "wrong_password"
		case model.ErrCodeIdentityNotFound:
			outcome = "unknown_email"
		case model.ErrCodeValidation:
			outcome = "validation"
		}
	}
	h.metrics.RecordLogin(method, outcome)
}
