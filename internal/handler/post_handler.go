package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/rideshare/internal/middleware"
	"github.com/hitoshi/rideshare/internal/model"
	"github.com/hitoshi/rideshare/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	CreateDriverPost(ctx context.Context, driverID string, in post.DriverPostInput) (*model.DriverPost, error)
	ListDriverPostsByOwner(ctx context.Context, driverID string) ([]*model.DriverPost, error)
	ListUpcomingDriverPosts(ctx context.Context) ([]*model.DriverPost, error)
	DeleteDriverPost(ctx context.Context, driverID, postID string) error
	CreatePassengerPost(ctx context.Context, passengerID string, in post.PassengerPostInput) (*model.PassengerPost, error)
	ListPassengerPostsByOwner(ctx context.Context, passengerID string) ([]*model.PassengerPost, error)
}

// PostHandler は投稿管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// createDriverPostRequest は相乗り募集投稿リクエストのボディ。
type createDriverPostRequest struct {
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	StartTime     time.Time `json:"start_time"`
	SeatCount     int       `json:"seat_count"`
	VehicleModel  string    `json:"vehicle_model"`
	LicenseNumber string    `json:"license_number"`
	ContactPhone  string    `json:"contact_phone"`
	ContactEmail  string    `json:"contact_email"`
	Notes         string    `json:"notes"`
}

// createPassengerPostRequest は同乗希望投稿リクエストのボディ。
type createPassengerPostRequest struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	StartTime   time.Time `json:"start_time"`
	SeatCount   int       `json:"seat_count"`
	Notes       string    `json:"notes"`
}

// driverPostResponse は相乗り募集投稿のAPIレスポンス（所有者向け全項目）。
type driverPostResponse struct {
	ID            string    `json:"id"`
	DriverID      string    `json:"driver_id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	StartTime     time.Time `json:"start_time"`
	SeatCount     int       `json:"seat_count"`
	VehicleModel  string    `json:"vehicle_model"`
	LicenseNumber string    `json:"license_number"`
	ContactPhone  string    `json:"contact_phone"`
	ContactEmail  string    `json:"contact_email"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

// publicDriverPostResponse は閲覧者向けの相乗り募集投稿レスポンス。
// 連絡先・車両識別情報は参加リクエスト承認前には開示しない。
type publicDriverPostResponse struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	StartTime   time.Time `json:"start_time"`
	SeatCount   int       `json:"seat_count"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// passengerPostResponse は同乗希望投稿のAPIレスポンス。
type passengerPostResponse struct {
	ID          string    `json:"id"`
	PassengerID string    `json:"passenger_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	StartTime   time.Time `json:"start_time"`
	SeatCount   int       `json:"seat_count"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateDriverPost は相乗り募集投稿を作成する。
// POST /api/posts/driver
func (h *PostHandler) CreateDriverPost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createDriverPostRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.CreateDriverPost(r.Context(), userID, post.DriverPostInput{
		Origin:        req.Origin,
		Destination:   req.Destination,
		StartTime:     req.StartTime,
		SeatCount:     req.SeatCount,
		VehicleModel:  req.VehicleModel,
		LicenseNumber: req.LicenseNumber,
		ContactPhone:  req.ContactPhone,
		ContactEmail:  req.ContactEmail,
		Notes:         req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDriverPostResponse(created))
}

// ListDriverPosts はドライバー自身の投稿一覧を返す。
// GET /api/posts/driver
func (h *PostHandler) ListDriverPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	posts, err := h.service.ListDriverPostsByOwner(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]driverPostResponse, 0, len(posts))
	for _, p := range posts {
		res = append(res, toDriverPostResponse(p))
	}

	writeJSON(w, http.StatusOK, res)
}

// ListUpcomingPosts は出発時刻が未来の募集投稿一覧を閲覧者向けに返す。
// GET /api/posts/upcoming
func (h *PostHandler) ListUpcomingPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListUpcomingDriverPosts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]publicDriverPostResponse, 0, len(posts))
	for _, p := range posts {
		res = append(res, publicDriverPostResponse{
			ID:          p.ID,
			Origin:      p.Origin,
			Destination: p.Destination,
			StartTime:   p.StartTime,
			SeatCount:   p.SeatCount,
			Notes:       p.Notes,
			CreatedAt:   p.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, res)
}

// DeleteDriverPost は相乗り募集投稿を削除する。
// DELETE /api/posts/driver/{id}
func (h *PostHandler) DeleteDriverPost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	if err := h.service.DeleteDriverPost(r.Context(), userID, postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreatePassengerPost は同乗希望投稿を作成する。
// POST /api/posts/passenger
func (h *PostHandler) CreatePassengerPost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createPassengerPostRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.CreatePassengerPost(r.Context(), userID, post.PassengerPostInput{
		Origin:      req.Origin,
		Destination: req.Destination,
		StartTime:   req.StartTime,
		SeatCount:   req.SeatCount,
		Notes:       req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPassengerPostResponse(created))
}

// ListPassengerPosts は乗客自身の投稿一覧を返す。
// GET /api/posts/passenger
func (h *PostHandler) ListPassengerPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	posts, err := h.service.ListPassengerPostsByOwner(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]passengerPostResponse, 0, len(posts))
	for _, p := range posts {
		res = append(res, toPassengerPostResponse(p))
	}

	writeJSON(w, http.StatusOK, res)
}

// --- ヘルパー関数 ---

func toDriverPostResponse(p *model.DriverPost) driverPostResponse {
	return driverPostResponse{
		ID:            p.ID,
		DriverID:      p.DriverID,
		Origin:        p.Origin,
		Destination:   p.Destination,
		StartTime:     p.StartTime,
		SeatCount:     p.SeatCount,
		VehicleModel:  p.VehicleModel,
		LicenseNumber: p.LicenseNumber,
		ContactPhone:  p.ContactPhone,
		ContactEmail:  p.ContactEmail,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

func toPassengerPostResponse(p *model.PassengerPost) passengerPostResponse {
	return passengerPostResponse{
		ID:          p.ID,
		PassengerID: p.PassengerID,
		Origin:      p.Origin,
		Destination: p.Destination,
		StartTime:   p.StartTime,
		SeatCount:   p.SeatCount,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
	}
}
