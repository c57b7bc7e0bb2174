// Package cleanup は孤立した参加リクエストの自動削除ジョブを提供する。
// join_requestsのdriver_post_idは投稿削除後も残り得るため（外部キーなし）、
// 参照先の存在しないレコードを日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// cleanedRecorder は削除件数のメトリクス記録インターフェース。
type cleanedRecorder interface {
	RecordDanglingCleaned(count int)
}

// CleanupJob は参照先投稿が存在しない参加リクエストの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db      Executor
	logger  *slog.Logger
	metrics cleanedRecorder
}

// NewCleanupJob は新しいCleanupJobを生成する。metricsはnil可。
func NewCleanupJob(db Executor, logger *slog.Logger, metrics cleanedRecorder) *CleanupJob {
	return &CleanupJob{
		db:      db,
		logger:  logger,
		metrics: metrics,
	}
}

// Run は参照先のdriver_postsレコードが存在しない参加リクエストを削除する。
// 読み取り経路はこうしたレコードをスキップして動作し続けるため、
// 削除の遅延はユーザーに見える障害にならない。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	query := `DELETE FROM join_requests jr
		WHERE NOT EXISTS (SELECT 1 FROM driver_posts dp WHERE dp.id = jr.driver_post_id)`
	result, err := j.db.ExecContext(ctx, query)
	if err != nil {
		j.logger.Error("孤立リクエストのクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("孤立リクエストのクリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordDanglingCleaned(int(deletedCount))
	}

	duration := time.Since(start)
	j.logger.Info("孤立リクエストのクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
