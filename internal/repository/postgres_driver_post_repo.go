package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/rideshare/internal/model"
)

// PostgresDriverPostRepo はPostgreSQLを使用した相乗り募集投稿リポジトリ。
type PostgresDriverPostRepo struct {
	db *sql.DB
}

// NewPostgresDriverPostRepo はPostgresDriverPostRepoを生成する。
func NewPostgresDriverPostRepo(db *sql.DB) *PostgresDriverPostRepo {
	return &PostgresDriverPostRepo{db: db}
}

const driverPostColumns = `id, driver_id, origin, destination, start_time, seat_count,
 vehicle_model, license_number, contact_phone, contact_email, notes, created_at, updated_at`

// Create は募集投稿を作成する。
func (r *PostgresDriverPostRepo) Create(ctx context.Context, post *model.DriverPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO driver_posts (`+driverPostColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		post.ID, post.DriverID, post.Origin, post.Destination, post.StartTime, post.SeatCount,
		post.VehicleModel, post.LicenseNumber, post.ContactPhone, post.ContactEmail,
		post.Notes, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert driver post: %w", err)
	}
	return nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresDriverPostRepo) FindByID(ctx context.Context, id string) (*model.DriverPost, error) {
	post := &model.DriverPost{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+driverPostColumns+` FROM driver_posts WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.DriverID, &post.Origin, &post.Destination, &post.StartTime,
		&post.SeatCount, &post.VehicleModel, &post.LicenseNumber, &post.ContactPhone,
		&post.ContactEmail, &post.Notes, &post.CreatedAt, &post.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find driver post: %w", err)
	}

	return post, nil
}

// ListByDriver はドライバー自身の投稿一覧をstart_time昇順で返す。
func (r *PostgresDriverPostRepo) ListByDriver(ctx context.Context, driverID string) ([]*model.DriverPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+driverPostColumns+` FROM driver_posts WHERE driver_id = $1 ORDER BY start_time ASC`,
		driverID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver posts: %w", err)
	}
	defer rows.Close()

	return scanDriverPosts(rows)
}

// ListUpcoming は出発時刻が未来の投稿をstart_time昇順で返す。
func (r *PostgresDriverPostRepo) ListUpcoming(ctx context.Context, limit int) ([]*model.DriverPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+driverPostColumns+` FROM driver_posts
		 WHERE start_time > now() ORDER BY start_time ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming driver posts: %w", err)
	}
	defer rows.Close()

	return scanDriverPosts(rows)
}

// Delete は指定IDの投稿を削除する。
func (r *PostgresDriverPostRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM driver_posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete driver post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("driver post not found: %s", id)
	}
	return nil
}

// scanDriverPosts は結果セットからDriverPostのスライスを構築する。
func scanDriverPosts(rows *sql.Rows) ([]*model.DriverPost, error) {
	var posts []*model.DriverPost
	for rows.Next() {
		post := &model.DriverPost{}
		if err := rows.Scan(&post.ID, &post.DriverID, &post.Origin, &post.Destination,
			&post.StartTime, &post.SeatCount, &post.VehicleModel, &post.LicenseNumber,
			&post.ContactPhone, &post.ContactEmail, &post.Notes,
			&post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan driver post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate driver posts: %w", err)
	}
	return posts, nil
}

// compile-time interface check
var _ DriverPostRepository = (*PostgresDriverPostRepo)(nil)
