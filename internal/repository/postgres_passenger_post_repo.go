package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/rideshare/internal/model"
)

// PostgresPassengerPostRepo はPostgreSQLを使用した同乗希望投稿リポジトリ。
type PostgresPassengerPostRepo struct {
	db *sql.DB
}

// NewPostgresPassengerPostRepo はPostgresPassengerPostRepoを生成する。
func NewPostgresPassengerPostRepo(db *sql.DB) *PostgresPassengerPostRepo {
	return &PostgresPassengerPostRepo{db: db}
}

// Create は同乗希望投稿を作成する。
func (r *PostgresPassengerPostRepo) Create(ctx context.Context, post *model.PassengerPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO passenger_posts (id, passenger_id, origin, destination, start_time, seat_count, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		post.ID, post.PassengerID, post.Origin, post.Destination, post.StartTime,
		post.SeatCount, post.Notes, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert passenger post: %w", err)
	}
	return nil
}

// ListByPassenger は乗客自身の投稿一覧をstart_time昇順で返す。
func (r *PostgresPassengerPostRepo) ListByPassenger(ctx context.Context, passengerID string) ([]*model.PassengerPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, passenger_id, origin, destination, start_time, seat_count, notes, created_at, updated_at
		 FROM passenger_posts WHERE passenger_id = $1 ORDER BY start_time ASC`,
		passengerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list passenger posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.PassengerPost
	for rows.Next() {
		post := &model.PassengerPost{}
		if err := rows.Scan(&post.ID, &post.PassengerID, &post.Origin, &post.Destination,
			&post.StartTime, &post.SeatCount, &post.Notes, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan passenger post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate passenger posts: %w", err)
	}
	return posts, nil
}

// compile-time interface check
var _ PassengerPostRepository = (*PostgresPassengerPostRepo)(nil)
