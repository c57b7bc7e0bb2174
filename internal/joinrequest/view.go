// Package joinrequest は参加リクエストの台帳と状態依存の開示制御を提供する。
package joinrequest

import (
	"time"

	"github.com/hitoshi/rideshare/internal/model"
)

// View は開示制御済みの参加リクエストビューを表す。
// 状態によってBasicViewまたはAcceptedViewのいずれかになるタグ付きバリアント。
// 単一構造体のオプショナルフィールドではなく型で分けることで、
// 未承認リクエストのビューに連絡先・車両フィールドが「キーとして存在しない」
// ことを保証する。
type View interface {
	isView()
}

// BasicView はpending/rejected状態のリクエストに開示されるビュー。
// 経路・時刻・座席数・補足・状態のみを含み、ドライバーの連絡先と
// 車両識別情報は相互の合意（承認）が成立するまで一切含まれない。
type BasicView struct {
	RequestID   string                  `json:"request_id"`
	PostID      string                  `json:"post_id"`
	Status      model.JoinRequestStatus `json:"status"`
	Origin      string                  `json:"origin"`
	Destination string                  `json:"destination"`
	StartTime   time.Time               `json:"start_time"`
	SeatCount   int                     `json:"seat_count"`
	Notes       string                  `json:"notes"`
	RequestedAt time.Time               `json:"requested_at"`
}

func (BasicView) isView() {}

// AcceptedView はaccepted状態のリクエストに開示されるビュー。
// BasicViewの全フィールドに加えて連絡先・車両識別情報を含む上位集合。
type AcceptedView struct {
	BasicView
	VehicleModel  string `json:"vehicle_model"`
	LicenseNumber string `json:"license_number"`
	ContactPhone  string `json:"contact_phone"`
	ContactEmail  string `json:"contact_email"`
}

func (AcceptedView) isView() {}

// newView は保存済みの状態に応じたビューを構築する。
func newView(request model.JoinRequest, post *model.DriverPost) View {
	basic := BasicView{
		RequestID:   request.ID,
		PostID:      post.ID,
		Status:      request.Status,
		Origin:      post.Origin,
		Destination: post.Destination,
		StartTime:   post.StartTime,
		SeatCount:   post.SeatCount,
		Notes:       post.Notes,
		RequestedAt: request.CreatedAt,
	}

	if request.Status != model.JoinRequestAccepted {
		return basic
	}

	return AcceptedView{
		BasicView:     basic,
		VehicleModel:  post.VehicleModel,
		LicenseNumber: post.LicenseNumber,
		ContactPhone:  post.ContactPhone,
		ContactEmail:  post.ContactEmail,
	}
}
