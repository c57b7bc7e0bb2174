package joinrequest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/rideshare/internal/model"
	"github.com/hitoshi/rideshare/internal/repository"
)

// metricsRecorder は台帳が記録するメトリクスのインターフェース。
type metricsRecorder interface {
	RecordDanglingReference()
}

// Service は参加リクエストのサービス層。
// 作成・状態遷移と、状態依存の開示制御を適用した読み取りを提供する。
type Service struct {
	requests    repository.JoinRequestRepository
	driverPosts repository.DriverPostRepository
	metrics     metricsRecorder
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	requests repository.JoinRequestRepository,
	driverPosts repository.DriverPostRepository,
	metrics metricsRecorder,
) *Service {
	return &Service{
		requests:    requests,
		driverPosts: driverPosts,
		metrics:     metrics,
	}
}

// Create は乗客から募集投稿への参加リクエストを作成する。
// 同一投稿への重複リクエストは拒否する。
func (s *Service) Create(ctx context.Context, passengerID, postID string) (*model.JoinRequest, error) {
	post, err := s.driverPosts.FindByID(ctx, postID)
	if err != nil {
		slog.Error("failed to find driver post", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	existing, err := s.requests.FindByPassengerAndPost(ctx, passengerID, postID)
	if err != nil {
		slog.Error("failed to check existing join request", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if existing != nil {
		return nil, model.NewValidationError("driver_post_id", "この投稿には既にリクエスト済みです")
	}

	now := time.Now()
	request := &model.JoinRequest{
		ID:           uuid.New().String(),
		PassengerID:  passengerID,
		DriverPostID: postID,
		Status:       model.JoinRequestPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.requests.Create(ctx, request); err != nil {
		slog.Error("failed to create join request", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	slog.Info("join request created",
		slog.String("request_id", request.ID),
		slog.String("passenger_id", passengerID),
		slog.String("post_id", postID),
	)

	return request, nil
}

// Accept は投稿の所有ドライバーがリクエストを承認する。
func (s *Service) Accept(ctx context.Context, driverID, requestID string) error {
	return s.transition(ctx, driverID, requestID, model.JoinRequestAccepted)
}

// Reject は投稿の所有ドライバーがリクエストを拒否する。
func (s *Service) Reject(ctx context.Context, driverID, requestID string) error {
	return s.transition(ctx, driverID, requestID, model.JoinRequestRejected)
}

// transition はリクエストの状態遷移を実行する。
// 参照先投稿の所有者のみが遷移を実行できる。
func (s *Service) transition(ctx context.Context, driverID, requestID string, status model.JoinRequestStatus) error {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		slog.Error("failed to find join request", slog.String("error", err.Error()))
		return model.NewInternalError()
	}
	if request == nil {
		return model.NewJoinRequestNotFoundError(requestID)
	}

	post, err := s.driverPosts.FindByID(ctx, request.DriverPostID)
	if err != nil {
		slog.Error("failed to find driver post", slog.String("error", err.Error()))
		return model.NewInternalError()
	}
	if post == nil {
		return model.NewPostNotFoundError(request.DriverPostID)
	}
	if post.DriverID != driverID {
		return model.NewForbiddenError()
	}

	if err := s.requests.UpdateStatus(ctx, requestID, status); err != nil {
		slog.Error("failed to update join request status", slog.String("error", err.Error()))
		return model.NewInternalError()
	}

	slog.Info("join request status updated",
		slog.String("request_id", requestID),
		slog.String("status", string(status)),
	)

	return nil
}

// ListByPassenger は乗客の参加リクエスト一覧を開示制御済みビューとして返す。
// 各リクエストは参照先のDriverPostと結合され、状態に応じたビューに変換される。
// 参照先が解決できないレコードはDanglingReferenceErrorとしてログに記録し、
// 該当レコードのみをスキップして残りを返す（部分失敗セマンティクス）。
func (s *Service) ListByPassenger(ctx context.Context, passengerID string) ([]View, error) {
	rows, err := s.requests.ListByPassengerWithPost(ctx, passengerID)
	if err != nil {
		slog.Error("failed to list join requests", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	views := make([]View, 0, len(rows))
	for _, row := range rows {
		if row.Post == nil {
			danglingErr := model.NewDanglingReferenceError(row.Request.ID, row.Request.DriverPostID)
			slog.Error("dangling join request reference",
				slog.String("request_id", row.Request.ID),
				slog.String("post_id", row.Request.DriverPostID),
				slog.String("error", danglingErr.Error()),
			)
			if s.metrics != nil {
				s.metrics.RecordDanglingReference()
			}
			continue
		}
		views = append(views, newView(row.Request, row.Post))
	}

	return views, nil
}

// ListByPost は投稿に対する参加リクエスト一覧を返す。
// 投稿の所有ドライバーのみが参照できる。
func (s *Service) ListByPost(ctx context.Context, driverID, postID string) ([]*model.JoinRequest, error) {
	post, err := s.driverPosts.FindByID(ctx, postID)
	if err != nil {
		slog.Error("failed to find driver post", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	if post.DriverID != driverID {
		return nil, model.NewForbiddenError()
	}

	requests, err := s.requests.ListByPost(ctx, postID)
	if err != nil {
		slog.Error("failed to list join requests by post", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	return requests, nil
}
