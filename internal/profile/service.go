// Package profile はアカウントの公開属性と活動情報を集約して返す。
package profile

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/rideshare/internal/avatar"
	"github.com/hitoshi/rideshare/internal/joinrequest"
	"github.com/hitoshi/rideshare/internal/model"
	"github.com/hitoshi/rideshare/internal/repository"
)

// Profile は本人向けプロフィールの集約ビュー。
// 資格情報（パスワードハッシュ）は決して含まれない。
// 活動情報は種別に応じたフィールドのみが設定される。
type Profile struct {
	ID        string     `json:"id"`
	Role      model.Role `json:"role"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	AvatarURL string     `json:"avatar_url"`
	CreatedAt time.Time  `json:"created_at"`

	// ドライバーの場合のみ: 自身の相乗り募集投稿
	DriverPosts []*model.DriverPost `json:"driver_posts,omitempty"`

	// 乗客の場合のみ: 自身の同乗希望投稿と参加リクエスト
	PassengerPosts []*model.PassengerPost `json:"passenger_posts,omitempty"`
	JoinRequests   []joinrequest.View     `json:"join_requests,omitempty"`
}

// joinRequestLister は乗客の参加リクエストビューを取得するインターフェース。
type joinRequestLister interface {
	ListByPassenger(ctx context.Context, passengerID string) ([]joinrequest.View, error)
}

// Service はプロフィール集約のサービス層。
type Service struct {
	identities     repository.IdentityRepository
	driverPosts    repository.DriverPostRepository
	passengerPosts repository.PassengerPostRepository
	joinRequests   joinRequestLister
	avatars        avatar.Resolver
}

// NewService はServiceを生成する。
func NewService(
	identities repository.IdentityRepository,
	driverPosts repository.DriverPostRepository,
	passengerPosts repository.PassengerPostRepository,
	joinRequests joinRequestLister,
	avatars avatar.Resolver,
) *Service {
	return &Service{
		identities:     identities,
		driverPosts:    driverPosts,
		passengerPosts: passengerPosts,
		joinRequests:   joinRequests,
		avatars:        avatars,
	}
}

// Get は認証済みアカウントのプロフィールを集約して返す。
// トークンは有効だがアカウントが削除済みの場合はIDENTITY_NOT_FOUNDを返す
// （トークン失効とアカウント削除の照合ポイント）。
func (s *Service) Get(ctx context.Context, role model.Role, identityID string) (*Profile, error) {
	identity, err := s.identities.FindByID(ctx, role, identityID)
	if err != nil {
		slog.Error("failed to find identity", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if identity == nil {
		return nil, model.NewIdentityNotFoundError()
	}

	profile := &Profile{
		ID:        identity.ID,
		Role:      identity.Role,
		Email:     identity.Email,
		Name:      identity.Name,
		Phone:     identity.Phone,
		AvatarURL: s.avatars.Resolve(identity.AvatarURL),
		CreatedAt: identity.CreatedAt,
	}

	switch identity.Role {
	case model.RoleDriver:
		posts, err := s.driverPosts.ListByDriver(ctx, identity.ID)
		if err != nil {
			slog.Error("failed to list driver posts for profile", slog.String("error", err.Error()))
			return nil, model.NewInternalError()
		}
		profile.DriverPosts = posts

	case model.RolePassenger:
		posts, err := s.passengerPosts.ListByPassenger(ctx, identity.ID)
		if err != nil {
			slog.Error("failed to list passenger posts for profile", slog.String("error", err.Error()))
			return nil, model.NewInternalError()
		}
		profile.PassengerPosts = posts

		views, err := s.joinRequests.ListByPassenger(ctx, identity.ID)
		if err != nil {
			return nil, err
		}
		profile.JoinRequests = views
	}

	return profile, nil
}
