package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/rideshare/internal/joinrequest"
	"github.com/hitoshi/rideshare/internal/middleware"
	"github.com/hitoshi/rideshare/internal/model"
)

// JoinRequestServiceInterface は参加リクエストハンドラーが必要とする
// サービスインターフェース。
type JoinRequestServiceInterface interface {
	Create(ctx context.Context, passengerID, postID string) (*model.JoinRequest, error)
	Accept(ctx context.Context, driverID, requestID string) error
	Reject(ctx context.Context, driverID, requestID string) error
	ListByPassenger(ctx context.Context, passengerID string) ([]joinrequest.View, error)
	ListByPost(ctx context.Context, driverID, postID string) ([]*model.JoinRequest, error)
}

// JoinRequestHandler は参加リクエストのHTTPハンドラー。
type JoinRequestHandler struct {
	service JoinRequestServiceInterface
}

// NewJoinRequestHandler はJoinRequestHandlerを生成する。
func NewJoinRequestHandler(service JoinRequestServiceInterface) *JoinRequestHandler {
	return &JoinRequestHandler{service: service}
}

// createJoinRequestRequest は参加リクエスト作成のボディ。
type createJoinRequestRequest struct {
	DriverPostID string `json:"driver_post_id"`
}

// joinRequestResponse は参加リクエストのAPIレスポンス。
type joinRequestResponse struct {
	ID           string    `json:"id"`
	PassengerID  string    `json:"passenger_id"`
	DriverPostID string    `json:"driver_post_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Create は募集投稿への参加リクエストを作成する。
// POST /api/join-requests
func (h *JoinRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createJoinRequestRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.DriverPostID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("driver_post_id", "必須項目です"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, req.DriverPostID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toJoinRequestResponse(created))
}

// List は乗客自身の参加リクエスト一覧を開示制御済みビューで返す。
// 承認済みリクエストのビューにのみドライバーの連絡先・車両情報が含まれる。
// GET /api/join-requests
func (h *JoinRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	views, err := h.service.ListByPassenger(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// Accept は参加リクエストを承認する。
// POST /api/join-requests/{id}/accept
func (h *JoinRequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Accept)
}

// Reject は参加リクエストを拒否する。
// POST /api/join-requests/{id}/reject
func (h *JoinRequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject)
}

func (h *JoinRequestHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, driverID, requestID string) error) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	requestID := chi.URLParam(r, "id")

	if err := fn(r.Context(), userID, requestID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByPost は投稿に対する参加リクエスト一覧を返す（所有ドライバー用）。
// GET /api/posts/driver/{id}/requests
func (h *JoinRequestHandler) ListByPost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	requests, err := h.service.ListByPost(r.Context(), userID, postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]joinRequestResponse, 0, len(requests))
	for _, req := range requests {
		res = append(res, toJoinRequestResponse(req))
	}

	writeJSON(w, http.StatusOK, res)
}

func toJoinRequestResponse(req *model.JoinRequest) joinRequestResponse {
	return joinRequestResponse{
		ID:           req.ID,
		PassengerID:  req.PassengerID,
		DriverPostID: req.DriverPostID,
		Status:       string(req.Status),
		CreatedAt:    req.CreatedAt,
	}
}
