// Package post は相乗り募集・同乗希望投稿のドメインロジックを提供する。
package post

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/rideshare/internal/model"
	"github.com/hitoshi/rideshare/internal/repository"
	"github.com/hitoshi/rideshare/internal/security"
)

// defaultListLimit は公開投稿一覧のデフォルト取得件数。
const defaultListLimit = 50

// DriverPostInput は相乗り募集投稿の入力。
type DriverPostInput struct {
	Origin        string
	Destination   string
	StartTime     time.Time
	SeatCount     int
	VehicleModel  string
	LicenseNumber string
	ContactPhone  string
	ContactEmail  string
	Notes         string
}

// PassengerPostInput は同乗希望投稿の入力。
type PassengerPostInput struct {
	Origin      string
	Destination string
	StartTime   time.Time
	SeatCount   int
	Notes       string
}

// Service は投稿管理のサービス層。
// 自由記述欄はサニタイザを通してから保存する。
type Service struct {
	driverPosts    repository.DriverPostRepository
	passengerPosts repository.PassengerPostRepository
	sanitizer      security.NotesSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	driverPosts repository.DriverPostRepository,
	passengerPosts repository.PassengerPostRepository,
	sanitizer security.NotesSanitizerService,
) *Service {
	return &Service{
		driverPosts:    driverPosts,
		passengerPosts: passengerPosts,
		sanitizer:      sanitizer,
	}
}

// CreateDriverPost はドライバーの相乗り募集投稿を作成する。
func (s *Service) CreateDriverPost(ctx context.Context, driverID string, in DriverPostInput) (*model.DriverPost, error) {
	if err := validateRoute(in.Origin, in.Destination, in.StartTime, in.SeatCount); err != nil {
		return nil, err
	}

	now := time.Now()
	post := &model.DriverPost{
		ID:            uuid.New().String(),
		DriverID:      driverID,
		Origin:        in.Origin,
		Destination:   in.Destination,
		StartTime:     in.StartTime,
		SeatCount:     in.SeatCount,
		VehicleModel:  in.VehicleModel,
		LicenseNumber: in.LicenseNumber,
		ContactPhone:  in.ContactPhone,
		ContactEmail:  in.ContactEmail,
		Notes:         s.sanitizer.Sanitize(in.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.driverPosts.Create(ctx, post); err != nil {
		slog.Error("failed to create driver post", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	slog.Info("driver post created",
		slog.String("post_id", post.ID),
		slog.String("driver_id", driverID),
	)

	return post, nil
}

// ListDriverPostsByOwner はドライバー自身の投稿一覧を返す。
func (s *Service) ListDriverPostsByOwner(ctx context.Context, driverID string) ([]*model.DriverPost, error) {
	posts, err := s.driverPosts.ListByDriver(ctx, driverID)
	if err != nil {
		slog.Error("failed to list driver posts", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	return posts, nil
}

// ListUpcomingDriverPosts は出発時刻が未来の公開投稿一覧を返す。
func (s *Service) ListUpcomingDriverPosts(ctx context.Context) ([]*model.DriverPost, error) {
	posts, err := s.driverPosts.ListUpcoming(ctx, defaultListLimit)
	if err != nil {
		slog.Error("failed to list upcoming driver posts", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	return posts, nil
}

// DeleteDriverPost はドライバー自身の投稿を削除する。
// 所有者以外の削除要求は拒否する。
func (s *Service) DeleteDriverPost(ctx context.Context, driverID, postID string) error {
	post, err := s.driverPosts.FindByID(ctx, postID)
	if err != nil {
		slog.Error("failed to find driver post", slog.String("error", err.Error()))
		return model.NewInternalError()
	}
	if post == nil {
		return model.NewPostNotFoundError(postID)
	}
	if post.DriverID != driverID {
		return model.NewForbiddenError()
	}

	if err := s.driverPosts.Delete(ctx, postID); err != nil {
		slog.Error("failed to delete driver post", slog.String("error", err.Error()))
		return model.NewInternalError()
	}

	slog.Info("driver post deleted",
		slog.String("post_id", postID),
		slog.String("driver_id", driverID),
	)

	return nil
}

// CreatePassengerPost は乗客の同乗希望投稿を作成する。
func (s *Service) CreatePassengerPost(ctx context.Context, passengerID string, in PassengerPostInput) (*model.PassengerPost, error) {
	if err := validateRoute(in.Origin, in.Destination, in.StartTime, in.SeatCount); err != nil {
		return nil, err
	}

	now := time.Now()
	post := &model.PassengerPost{
		ID:          uuid.New().String(),
		PassengerID: passengerID,
		Origin:      in.Origin,
		Destination: in.Destination,
		StartTime:   in.StartTime,
		SeatCount:   in.SeatCount,
		Notes:       s.sanitizer.Sanitize(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.passengerPosts.Create(ctx, post); err != nil {
		slog.Error("failed to create passenger post", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	slog.Info("passenger post created",
		slog.String("post_id", post.ID),
		slog.String("passenger_id", passengerID),
	)

	return post, nil
}

// ListPassengerPostsByOwner は乗客自身の投稿一覧を返す。
func (s *Service) ListPassengerPostsByOwner(ctx context.Context, passengerID string) ([]*model.PassengerPost, error) {
	posts, err := s.passengerPosts.ListByPassenger(ctx, passengerID)
	if err != nil {
		slog.Error("failed to list passenger posts", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	return posts, nil
}

// validateRoute は投稿の経路フィールドを検証する。
func validateRoute(origin, destination string, startTime time.Time, seatCount int) error {
	if origin == "" {
		return model.NewValidationError("origin", "必須項目です")
	}
	if destination == "" {
		return model.NewValidationError("destination", "必須項目です")
	}
	if startTime.IsZero() {
		return model.NewValidationError("start_time", "必須項目です")
	}
	if seatCount < 1 {
		return model.NewValidationError("seat_count", "1以上を指定してください")
	}
	return nil
}
