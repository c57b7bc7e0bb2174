package joinrequest

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/rideshare/internal/model"
	"github.com/hitoshi/rideshare/internal/repository"
)

// --- モック定義 ---

type mockJoinRequestRepo struct {
	createFn                 func(ctx context.Context, request *model.JoinRequest) error
	findByIDFn               func(ctx context.Context, id string) (*model.JoinRequest, error)
	findByPassengerAndPostFn func(ctx context.Context, passengerID, postID string) (*model.JoinRequest, error)
	updateStatusFn           func(ctx context.Context, id string, status model.JoinRequestStatus) error
	listByPassengerFn        func(ctx context.Context, passengerID string) ([]repository.JoinRequestWithPost, error)
	listByPostFn             func(ctx context.Context, postID string) ([]*model.JoinRequest, error)
}

func (m *mockJoinRequestRepo) Create(ctx context.Context, request *model.JoinRequest) error {
	if m.createFn != nil {
		return m.createFn(ctx, request)
	}
	return nil
}

func (m *mockJoinRequestRepo) FindByID(ctx context.Context, id string) (*model.JoinRequest, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockJoinRequestRepo) FindByPassengerAndPost(ctx context.Context, passengerID, postID string) (*model.JoinRequest, error) {
	if m.findByPassengerAndPostFn != nil {
		return m.findByPassengerAndPostFn(ctx, passengerID, postID)
	}
	return nil, nil
}

func (m *mockJoinRequestRepo) UpdateStatus(ctx context.Context, id string, status model.JoinRequestStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockJoinRequestRepo) ListByPassengerWithPost(ctx context.Context, passengerID string) ([]repository.JoinRequestWithPost, error) {
	if m.listByPassengerFn != nil {
		return m.listByPassengerFn(ctx, passengerID)
	}
	return nil, nil
}

func (m *mockJoinRequestRepo) ListByPost(ctx context.Context, postID string) ([]*model.JoinRequest, error) {
	if m.listByPostFn != nil {
		return m.listByPostFn(ctx, postID)
	}
	return nil, nil
}

type mockDriverPostRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.DriverPost, error)
}

func (m *mockDriverPostRepo) Create(_ context.Context, _ *model.DriverPost) error { return nil }

func (m *mockDriverPostRepo) FindByID(ctx context.Context, id string) (*model.DriverPost, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockDriverPostRepo) ListByDriver(_ context.Context, _ string) ([]*model.DriverPost, error) {
	return nil, nil
}

func (m *mockDriverPostRepo) ListUpcoming(_ context.Context, _ int) ([]*model.DriverPost, error) {
	return nil, nil
}

func (m *mockDriverPostRepo) Delete(_ context.Context, _ string) error { return nil }

type mockMetricsRecorder struct {
	danglingCount int
}

func (m *mockMetricsRecorder) RecordDanglingReference() {
	m.danglingCount++
}

// --- compile-time interface checks ---
var _ repository.JoinRequestRepository = (*mockJoinRequestRepo)(nil)
var _ repository.DriverPostRepository = (*mockDriverPostRepo)(nil)

func postOwnedBy(driverID string) *model.DriverPost {
	return &model.DriverPost{
		ID:          "post-1",
		DriverID:    driverID,
		Origin:      "東京",
		Destination: "大阪",
		SeatCount:   3,
	}
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	var created *model.JoinRequest
	requests := &mockJoinRequestRepo{
		createFn: func(_ context.Context, request *model.JoinRequest) error {
			created = request
			return nil
		},
	}
	posts := &mockDriverPostRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.DriverPost, error) {
			return postOwnedBy("driver-1"), nil
		},
	}
	svc := NewService(requests, posts, nil)

	request, err := svc.Create(context.Background(), "passenger-1", "post-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created == nil {
		t.Fatal("リポジトリのCreateが呼び出されていない")
	}
	if request.Status != model.JoinRequestPending {
		t.Errorf("Status = %q, want %q", request.Status, model.JoinRequestPending)
	}
	if request.PassengerID != "passenger-1" {
		t.Errorf("PassengerID = %q, want %q", request.PassengerID, "passenger-1")
	}
	if request.DriverPostID != "post-1" {
		t.Errorf("DriverPostID = %q, want %q", request.DriverPostID, "post-1")
	}
}

func TestCreate_PostNotFound(t *testing.T) {
	svc := NewService(&mockJoinRequestRepo{}, &mockDriverPostRepo{}, nil)

	_, err := svc.Create(context.Background(), "passenger-1", "missing-post")
	assertAPIErrorCode(t, err, model.ErrCodePostNotFound)
}

func TestCreate_DuplicateRequest(t *testing.T) {
	requests := &mockJoinRequestRepo{
		findByPassengerAndPostFn: func(_ context.Context, _, _ string) (*model.JoinRequest, error) {
			return &model.JoinRequest{ID: "existing-1"}, nil
		},
	}
	posts := &mockDriverPostRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.DriverPost, error) {
			return postOwnedBy("driver-1"), nil
		},
	}
	svc := NewService(requests, posts, nil)

	_, err := svc.Create(context.Background(), "passenger-1", "post-1")
	assertAPIErrorCode(t, err, model.ErrCodeValidation)
}

// --- Accept / Reject ---

func TestAccept_Success(t *testing.T) {
	var updatedStatus model.JoinRequestStatus
	requests := &mockJoinRequestRepo{
		findByIDFn: func(_ context.Context, id string) (*model.JoinRequest, error) {
			return &model.JoinRequest{ID: id, DriverPostID: "post-1", Status: model.JoinRequestPending}, nil
		},
		updateStatusFn: func(_ context.Context, _ string, status model.JoinRequestStatus) error {
			updatedStatus = status
			return nil
		},
	}
	posts := &mockDriverPostRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.DriverPost, error) {
			return postOwnedBy("driver-1"), nil
		},
	}
	svc := NewService(requests, posts, nil)

	if err := svc.Accept(context.Background(), "driver-1", "request-1"); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if updatedStatus != model.JoinRequestAccepted {
		t.Errorf("status = %q, want %q", updatedStatus, model.JoinRequestAccepted)
	}
}

func TestReject_Success(t *testing.T) {
	var updatedStatus model.JoinRequestStatus
	requests := &mockJoinRequestRepo{
		findByIDFn: func(_ context.Context, id string) (*model.JoinRequest, error) {
			return &model.JoinRequest{ID: id, DriverPostID: "post-1", Status: model.JoinRequestPending}, nil
		},
		updateStatusFn: func(_ context.Context, _ string, status model.JoinRequestStatus) error {
			updatedStatus = status
			return nil
		},
	}
	posts := &mockDriverPostRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.DriverPost, error) {
			return postOwnedBy("driver-1"), nil
		},
	}
	svc := NewService(requests, posts, nil)

	if err := svc.Reject(context.Background(), "driver-1", "request-1"); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	if updatedStatus != model.JoinRequestRejected {
		t.Errorf("status = %q, want %q", updatedStatus, model.JoinRequestRejected)
	}
}

func TestAccept_NotOwner_Forbidden(t *testing.T) {
	requests := &mockJoinRequestRepo{
		findByIDFn: func(_ context.Context, id string) (*model.JoinRequest, error) {
			return &model.JoinRequest{ID: id, DriverPostID: "post-1"}, nil
		},
	}
	posts := &mockDriverPostRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.DriverPost, error) {
			return postOwnedBy("owner-driver"), nil
		},
	}
	svc := NewService(requests, posts, nil)

	err := svc.Accept(context.Background(), "other-driver", "request-1")
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

func TestAccept_RequestNotFound(t *testing.T) {
	svc := NewService(&mockJoinRequestRepo{}, &mockDriverPostRepo{}, nil)

	err := svc.Accept(context.Background(), "driver-1", "missing-request")
	assertAPIErrorCode(t, err, model.ErrCodeJoinRequestNotFound)
}

func TestAccept_DanglingPost_NotFound(t *testing.T) {
	requests := &mockJoinRequestRepo{
		findByIDFn: func(_ context.Context, id string) (*model.JoinRequest, error) {
			return &model.JoinRequest{ID: id, DriverPostID: "deleted-post"}, nil
		},
	}
	svc := NewService(requests, &mockDriverPostRepo{}, nil)

	err := svc.Accept(context.Background(), "driver-1", "request-1")
	assertAPIErrorCode(t, err, model.ErrCodePostNotFound)
}

// --- ListByPassenger ---

func TestListByPassenger_DisclosureByStatus(t *testing.T) {
	requests := &mockJoinRequestRepo{
		listByPassengerFn: func(_ context.Context, _ string) ([]repository.JoinRequestWithPost, error) {
			return []repository.JoinRequestWithPost{
				{
					Request: model.JoinRequest{ID: "req-pending", Status: model.JoinRequestPending, DriverPostID: "post-1"},
					Post:    samplePost(),
				},
				{
					Request: model.JoinRequest{ID: "req-accepted", Status: model.JoinRequestAccepted, DriverPostID: "post-1"},
					Post:    samplePost(),
				},
			}, nil
		},
	}
	svc := NewService(requests, &mockDriverPostRepo{}, nil)

	views, err := svc.ListByPassenger(context.Background(), "passenger-1")
	if err != nil {
		t.Fatalf("ListByPassenger returned error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("len(views) = %d, want 2", len(views))
	}

	if _, ok := views[0].(BasicView); !ok {
		t.Errorf("views[0] = %T, want BasicView", views[0])
	}
	if _, ok := views[1].(AcceptedView); !ok {
		t.Errorf("views[1] = %T, want AcceptedView", views[1])
	}
}

func TestListByPassenger_SkipsDanglingReferences(t *testing.T) {
	requests := &mockJoinRequestRepo{
		listByPassengerFn: func(_ context.Context, _ string) ([]repository.JoinRequestWithPost, error) {
			return []repository.JoinRequestWithPost{
				{
					Request: model.JoinRequest{ID: "req-ok", Status: model.JoinRequestPending, DriverPostID: "post-1"},
					Post:    samplePost(),
				},
				{
					// 参照先投稿が削除済み
					Request: model.JoinRequest{ID: "req-dangling", Status: model.JoinRequestPending, DriverPostID: "deleted-post"},
					Post:    nil,
				},
			}, nil
		},
	}
	metrics := &mockMetricsRecorder{}
	svc := NewService(requests, &mockDriverPostRepo{}, metrics)

	views, err := svc.ListByPassenger(context.Background(), "passenger-1")
	if err != nil {
		t.Fatalf("danglingレコードは一覧全体を失敗させてはならない: %v", err)
	}

	if len(views) != 1 {
		t.Fatalf("len(views) = %d, want 1（danglingはスキップ）", len(views))
	}
	basic, ok := views[0].(BasicView)
	if !ok {
		t.Fatalf("views[0] = %T, want BasicView", views[0])
	}
	if basic.RequestID != "req-ok" {
		t.Errorf("RequestID = %q, want %q", basic.RequestID, "req-ok")
	}

	if metrics.danglingCount != 1 {
		t.Errorf("dangling metric count = %d, want 1", metrics.danglingCount)
	}
}

func TestListByPassenger_AllDangling_ReturnsEmptyList(t *testing.T) {
	requests := &mockJoinRequestRepo{
		listByPassengerFn: func(_ context.Context, _ string) ([]repository.JoinRequestWithPost, error) {
			return []repository.JoinRequestWithPost{
				{Request: model.JoinRequest{ID: "req-1", DriverPostID: "gone-1"}, Post: nil},
				{Request: model.JoinRequest{ID: "req-2", DriverPostID: "gone-2"}, Post: nil},
			}, nil
		},
	}
	metrics := &mockMetricsRecorder{}
	svc := NewService(requests, &mockDriverPostRepo{}, metrics)

	views, err := svc.ListByPassenger(context.Background(), "passenger-1")
	if err != nil {
		t.Fatalf("ListByPassenger returned error: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("len(views) = %d, want 0", len(views))
	}
	if views == nil {
		t.Error("空一覧はnilではなく空スライスを返すべき")
	}
	if metrics.danglingCount != 2 {
		t.Errorf("dangling metric count = %d, want 2", metrics.danglingCount)
	}
}

func TestListByPassenger_NilMetrics_DoesNotPanic(t *testing.T) {
	requests := &mockJoinRequestRepo{
		listByPassengerFn: func(_ context.Context, _ string) ([]repository.JoinRequestWithPost, error) {
			return []repository.JoinRequestWithPost{
				{Request: model.JoinRequest{ID: "req-1", DriverPostID: "gone-1"}, Post: nil},
			}, nil
		},
	}
	svc := NewService(requests, &mockDriverPostRepo{}, nil)

	if _, err := svc.ListByPassenger(context.Background(), "passenger-1"); err != nil {
		t.Fatalf("ListByPassenger returned error: %v", err)
	}
}

// --- ListByPost ---

func TestListByPost_OwnerOnly(t *testing.T) {
	requests := &mockJoinRequestRepo{
		listByPostFn: func(_ context.Context, _ string) ([]*model.JoinRequest, error) {
			return []*model.JoinRequest{{ID: "req-1"}}, nil
		},
	}
	posts := &mockDriverPostRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.DriverPost, error) {
			return postOwnedBy("driver-1"), nil
		},
	}
	svc := NewService(requests, posts, nil)

	list, err := svc.ListByPost(context.Background(), "driver-1", "post-1")
	if err != nil {
		t.Fatalf("ListByPost returned error: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len(list) = %d, want 1", len(list))
	}

	_, err = svc.ListByPost(context.Background(), "other-driver", "post-1")
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

func TestListByPost_PostNotFound(t *testing.T) {
	svc := NewService(&mockJoinRequestRepo{}, &mockDriverPostRepo{}, nil)

	_, err := svc.ListByPost(context.Background(), "driver-1", "missing-post")
	assertAPIErrorCode(t, err, model.ErrCodePostNotFound)
}

func TestListByPassenger_RepositoryError(t *testing.T) {
	requests := &mockJoinRequestRepo{
		listByPassengerFn: func(_ context.Context, _ string) ([]repository.JoinRequestWithPost, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(requests, &mockDriverPostRepo{}, nil)

	_, err := svc.ListByPassenger(context.Background(), "passenger-1")
	assertAPIErrorCode(t, err, model.ErrCodeInternal)
}

// assertAPIErrorCode はエラーが指定コードのAPIErrorであることを検証する。
func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %q, got nil", code)
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("code = %q, want %q", apiErr.Code, code)
	}
}
