// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/rideshare/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意性制約違反を表すセンチネルエラー。
// ストレージ層のunique制約による拒否が権威的なシグナルであり、
// 事前のExistsByEmailチェックは高速パスのヒントに過ぎない。
var ErrDuplicateEmail = errors.New("email already claimed")

// IdentityRepository はアカウントデータの永続化インターフェース。
// 乗客・ドライバーは別テーブルに保存されるが、メールアドレスは
// account_emailsテーブルのunique制約により両種別をまたいで一意に保たれる。
type IdentityRepository interface {
	// ExistsByEmail は指定メールアドレスが両種別のいずれかに存在するかを返す。
	// create/update前の高速パスチェック用。権威的な判定はunique制約が行う。
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create はアカウントとメールアドレスのclaimを同一トランザクションで作成する。
	// メールアドレスが既にclaim済みの場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, identity *model.Identity) error

	// FindByID は指定種別・IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, role model.Role, id string) (*model.Identity, error)

	// FindByEmail は両種別を横断してメールアドレスでアカウントを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)

	// Update はアカウント情報を更新する。
	// メールアドレスが変更された場合はclaimの付け替えを同一トランザクションで行い、
	// 衝突時はErrDuplicateEmailを返す。
	Update(ctx context.Context, identity *model.Identity, oldEmail string) error
}

// DriverPostRepository は相乗り募集投稿の永続化インターフェース。
type DriverPostRepository interface {
	// Create は募集投稿を作成する。
	Create(ctx context.Context, post *model.DriverPost) error

	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.DriverPost, error)

	// ListByDriver はドライバー自身の投稿一覧をstart_time昇順で返す。
	ListByDriver(ctx context.Context, driverID string) ([]*model.DriverPost, error)

	// ListUpcoming は出発時刻が未来の投稿をstart_time昇順で返す。
	ListUpcoming(ctx context.Context, limit int) ([]*model.DriverPost, error)

	// Delete は指定IDの投稿を削除する。
	Delete(ctx context.Context, id string) error
}

// PassengerPostRepository は同乗希望投稿の永続化インターフェース。
type PassengerPostRepository interface {
	// Create は同乗希望投稿を作成する。
	Create(ctx context.Context, post *model.PassengerPost) error

	// ListByPassenger は乗客自身の投稿一覧をstart_time昇順で返す。
	ListByPassenger(ctx context.Context, passengerID string) ([]*model.PassengerPost, error)
}

// JoinRequestWithPost は参加リクエストと参照先投稿を結合した構造体。
// 参照先が削除済みの場合Postはnilになる（dangling reference）。
type JoinRequestWithPost struct {
	Request model.JoinRequest
	Post    *model.DriverPost
}

// JoinRequestRepository は参加リクエストの永続化インターフェース。
type JoinRequestRepository interface {
	// Create は参加リクエストを作成する。
	Create(ctx context.Context, request *model.JoinRequest) error

	// FindByID は指定IDのリクエストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.JoinRequest, error)

	// FindByPassengerAndPost は乗客IDと投稿IDでリクエストを検索する。
	// 見つからない場合はnilを返す。重複リクエスト防止に使用する。
	FindByPassengerAndPost(ctx context.Context, passengerID, postID string) (*model.JoinRequest, error)

	// UpdateStatus はリクエストの状態を更新する。
	UpdateStatus(ctx context.Context, id string, status model.JoinRequestStatus) error

	// ListByPassengerWithPost は乗客の全リクエストを参照先投稿とLEFT JOINして
	// 作成日時降順で返す。参照先が削除済みのレコードはPost=nilで返す。
	ListByPassengerWithPost(ctx context.Context, passengerID string) ([]JoinRequestWithPost, error)

	// ListByPost は投稿に対する全リクエストを作成日時昇順で返す。
	ListByPost(ctx context.Context, postID string) ([]*model.JoinRequest, error)
}
