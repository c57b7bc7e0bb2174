package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/rideshare/internal/account"
	"github.com/hitoshi/rideshare/internal/middleware"
	"github.com/hitoshi/rideshare/internal/model"
	"github.com/hitoshi/rideshare/internal/profile"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	Get(ctx context.Context, role model.Role, identityID string) (*profile.Profile, error)
}

// ProfileUpdater はプロフィール更新のためのインターフェース。
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, role model.Role, id string, in account.UpdateInput) (*model.Identity, error)
}

// ProfileHandler はプロフィールのHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
	updater ProfileUpdater
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface, updater ProfileUpdater) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		updater: updater,
	}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateProfileRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

// GetProfile は認証済みアカウントの集約プロフィールを返す。
// GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), role, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// UpdateProfile はプロフィールを部分更新する。
// PATCH /api/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	identity, err := h.updater.UpdateProfile(r.Context(), role, userID, account.UpdateInput{
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}

// identityFromRequest はコンテキストから認証済みアカウントのIDと種別を取得する。
// 取得できない場合は401を書き込みfalseを返す。
func identityFromRequest(w http.ResponseWriter, r *http.Request) (string, model.Role, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", "", false
	}
	role, err := middleware.RoleFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", "", false
	}
	return userID, role, true
}
