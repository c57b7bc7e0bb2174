package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/rideshare/internal/model"
)

// PostgresDriverPostRepoはDriverPostRepositoryインターフェースを満たすことを検証
func TestPostgresDriverPostRepo_ImplementsInterface(t *testing.T) {
	var _ DriverPostRepository = (*PostgresDriverPostRepo)(nil)
}

// PostgresPassengerPostRepoはPassengerPostRepositoryインターフェースを満たすことを検証
func TestPostgresPassengerPostRepo_ImplementsInterface(t *testing.T) {
	var _ PassengerPostRepository = (*PostgresPassengerPostRepo)(nil)
}

// NewPostgresDriverPostRepoが正しく初期化されることを検証
func TestNewPostgresDriverPostRepo_Initializes(t *testing.T) {
	repo := NewPostgresDriverPostRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresPassengerPostRepoが正しく初期化されることを検証
func TestNewPostgresPassengerPostRepo_Initializes(t *testing.T) {
	repo := NewPostgresPassengerPostRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// DriverPostモデルのフィールドが正しく構築されることを検証
func TestDriverPostModel_Fields(t *testing.T) {
	now := time.Now()
	post := &model.DriverPost{
		ID:            "post-id-1",
		DriverID:      "driver-id-1",
		Origin:        "東京",
		Destination:   "名古屋",
		StartTime:     now.Add(24 * time.Hour),
		SeatCount:     3,
		VehicleModel:  "Honda Fit",
		LicenseNumber: "横浜 500 か 56-78",
		ContactPhone:  "0901234567",
		ContactEmail:  "driver@example.com",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if post.ID != "post-id-1" {
		t.Errorf("post.ID = %q, want %q", post.ID, "post-id-1")
	}
	if post.SeatCount != 3 {
		t.Errorf("post.SeatCount = %d, want 3", post.SeatCount)
	}
	if !post.StartTime.After(now) {
		t.Error("post.StartTime should be in the future")
	}
}

// PassengerPostモデルには連絡先・車両フィールドが存在しないことの確認
// （開示制御の対象はドライバー側投稿のみ）
func TestPassengerPostModel_Fields(t *testing.T) {
	post := &model.PassengerPost{
		ID:          "post-id-2",
		PassengerID: "passenger-id-1",
		Origin:      "京都",
		Destination: "神戸",
		SeatCount:   1,
		Notes:       "荷物は少なめです",
	}

	if post.PassengerID != "passenger-id-1" {
		t.Errorf("post.PassengerID = %q, want %q", post.PassengerID, "passenger-id-1")
	}
	if post.Notes != "荷物は少なめです" {
		t.Errorf("post.Notes = %q, want %q", post.Notes, "荷物は少なめです")
	}
}
