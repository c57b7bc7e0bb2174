package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/rideshare/internal/model"
)

// PostgresJoinRequestRepo はPostgreSQLを使用した参加リクエストリポジトリ。
type PostgresJoinRequestRepo struct {
	db *sql.DB
}

// NewPostgresJoinRequestRepo はPostgresJoinRequestRepoを生成する。
func NewPostgresJoinRequestRepo(db *sql.DB) *PostgresJoinRequestRepo {
	return &PostgresJoinRequestRepo{db: db}
}

// Create は参加リクエストを作成する。
func (r *PostgresJoinRequestRepo) Create(ctx context.Context, request *model.JoinRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO join_requests (id, passenger_id, driver_post_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		request.ID, request.PassengerID, request.DriverPostID, request.Status,
		request.CreatedAt, request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert join request: %w", err)
	}
	return nil
}

// FindByID は指定IDのリクエストを取得する。見つからない場合はnilを返す。
func (r *PostgresJoinRequestRepo) FindByID(ctx context.Context, id string) (*model.JoinRequest, error) {
	request := &model.JoinRequest{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, passenger_id, driver_post_id, status, created_at, updated_at
		 FROM join_requests WHERE id = $1`,
		id,
	).Scan(&request.ID, &request.PassengerID, &request.DriverPostID, &request.Status,
		&request.CreatedAt, &request.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find join request: %w", err)
	}

	return request, nil
}

// FindByPassengerAndPost は乗客IDと投稿IDでリクエストを検索する。
func (r *PostgresJoinRequestRepo) FindByPassengerAndPost(ctx context.Context, passengerID, postID string) (*model.JoinRequest, error) {
	request := &model.JoinRequest{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, passenger_id, driver_post_id, status, created_at, updated_at
		 FROM join_requests WHERE passenger_id = $1 AND driver_post_id = $2`,
		passengerID, postID,
	).Scan(&request.ID, &request.PassengerID, &request.DriverPostID, &request.Status,
		&request.CreatedAt, &request.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find join request by passenger and post: %w", err)
	}

	return request, nil
}

// UpdateStatus はリクエストの状態を更新する。
func (r *PostgresJoinRequestRepo) UpdateStatus(ctx context.Context, id string, status model.JoinRequestStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE join_requests SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update join request status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("join request not found: %s", id)
	}
	return nil
}

// ListByPassengerWithPost は乗客の全リクエストを参照先投稿とLEFT JOINして返す。
// driver_post_idには外部キー制約を張っていないため、投稿削除後のリクエストは
// Post=nilのdanglingレコードとして返る。スキップの判断はサービス層が行う。
func (r *PostgresJoinRequestRepo) ListByPassengerWithPost(ctx context.Context, passengerID string) ([]JoinRequestWithPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT jr.id, jr.passenger_id, jr.driver_post_id, jr.status, jr.created_at, jr.updated_at,
		        dp.id, dp.driver_id, dp.origin, dp.destination, dp.start_time, dp.seat_count,
		        dp.vehicle_model, dp.license_number, dp.contact_phone, dp.contact_email, dp.notes,
		        dp.created_at, dp.updated_at
		 FROM join_requests jr
		 LEFT JOIN driver_posts dp ON dp.id = jr.driver_post_id
		 WHERE jr.passenger_id = $1
		 ORDER BY jr.created_at DESC`,
		passengerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	defer rows.Close()

	var results []JoinRequestWithPost
	for rows.Next() {
		var jr model.JoinRequest
		var postID, driverID, origin, destination, vehicleModel sql.NullString
		var licenseNumber, contactPhone, contactEmail, notes sql.NullString
		var startTime, postCreatedAt, postUpdatedAt sql.NullTime
		var seatCount sql.NullInt64

		if err := rows.Scan(
			&jr.ID, &jr.PassengerID, &jr.DriverPostID, &jr.Status, &jr.CreatedAt, &jr.UpdatedAt,
			&postID, &driverID, &origin, &destination, &startTime, &seatCount,
			&vehicleModel, &licenseNumber, &contactPhone, &contactEmail, &notes,
			&postCreatedAt, &postUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan join request row: %w", err)
		}

		result := JoinRequestWithPost{Request: jr}
		if postID.Valid {
			result.Post = &model.DriverPost{
				ID:            postID.String,
				DriverID:      driverID.String,
				Origin:        origin.String,
				Destination:   destination.String,
				StartTime:     startTime.Time,
				SeatCount:     int(seatCount.Int64),
				VehicleModel:  vehicleModel.String,
				LicenseNumber: licenseNumber.String,
				ContactPhone:  contactPhone.String,
				ContactEmail:  contactEmail.String,
				Notes:         notes.String,
				CreatedAt:     postCreatedAt.Time,
				UpdatedAt:     postUpdatedAt.Time,
			}
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate join requests: %w", err)
	}

	return results, nil
}

// ListByPost は投稿に対する全リクエストを作成日時昇順で返す。
func (r *PostgresJoinRequestRepo) ListByPost(ctx context.Context, postID string) ([]*model.JoinRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, passenger_id, driver_post_id, status, created_at, updated_at
		 FROM join_requests WHERE driver_post_id = $1 ORDER BY created_at ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests by post: %w", err)
	}
	defer rows.Close()

	var requests []*model.JoinRequest
	for rows.Next() {
		request := &model.JoinRequest{}
		if err := rows.Scan(&request.ID, &request.PassengerID, &request.DriverPostID,
			&request.Status, &request.CreatedAt, &request.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan join request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate join requests: %w", err)
	}
	return requests, nil
}

// compile-time interface check
var _ JoinRequestRepository = (*PostgresJoinRequestRepo)(nil)
