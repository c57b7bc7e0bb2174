package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/rideshare/internal/model"
)

// uniqueViolation はPostgreSQLのunique制約違反を表すSQLSTATEコード。
const uniqueViolation = "23505"

// PostgresIdentityRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresIdentityRepo struct {
	db *sql.DB
}

// NewPostgresIdentityRepo はPostgresIdentityRepoを生成する。
func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

// tableForRole は種別に対応するテーブル名を返す。
// Role型の定義済み値以外は受け付けないため、SQLインジェクションの余地はない。
func tableForRole(role model.Role) (string, error) {
	switch role {
	case model.RolePassenger:
		return "passengers", nil
	case model.RoleDriver:
		return "drivers", nil
	default:
		return "", fmt.Errorf("unknown role: %s", role)
	}
}

// ExistsByEmail は指定メールアドレスが両種別のいずれかに存在するかを返す。
func (r *PostgresIdentityRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM account_emails WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// Create はアカウントとメールアドレスのclaimを同一トランザクションで作成する。
// account_emailsのunique制約違反はErrDuplicateEmailに変換する。
func (r *PostgresIdentityRepo) Create(ctx context.Context, identity *model.Identity) error {
	table, err := tableForRole(identity.Role)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// メールアドレスのclaimを先に取得する（権威的な一意性ガード）
	_, err = tx.ExecContext(ctx,
		`INSERT INTO account_emails (email, role) VALUES ($1, $2)`,
		identity.Email, identity.Role,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to claim email: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, email, name, phone, password_hash, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, table),
		identity.ID, identity.Email, identity.Name, identity.Phone,
		identity.PasswordHash, identity.AvatarURL, identity.CreatedAt, identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByID は指定種別・IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresIdentityRepo) FindByID(ctx context.Context, role model.Role, id string) (*model.Identity, error) {
	table, err := tableForRole(role)
	if err != nil {
		return nil, err
	}

	identity := &model.Identity{Role: role}
	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, email, name, phone, password_hash, avatar_url, created_at, updated_at
		 FROM %s WHERE id = $1`, table),
		id,
	).Scan(&identity.ID, &identity.Email, &identity.Name, &identity.Phone,
		&identity.PasswordHash, &identity.AvatarURL, &identity.CreatedAt, &identity.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity by ID: %w", err)
	}

	return identity, nil
}

// FindByEmail は両種別を横断してメールアドレスでアカウントを検索する。
// account_emailsのclaimから種別を特定してから該当テーブルを引く。
func (r *PostgresIdentityRepo) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	var role model.Role
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM account_emails WHERE email = $1`,
		email,
	).Scan(&role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve email claim: %w", err)
	}

	table, err := tableForRole(role)
	if err != nil {
		return nil, err
	}

	identity := &model.Identity{Role: role}
	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, email, name, phone, password_hash, avatar_url, created_at, updated_at
		 FROM %s WHERE email = $1`, table),
		email,
	).Scan(&identity.ID, &identity.Email, &identity.Name, &identity.Phone,
		&identity.PasswordHash, &identity.AvatarURL, &identity.CreatedAt, &identity.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		// claimだけ残っている不整合状態。呼び出し側では未登録として扱う。
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity by email: %w", err)
	}

	return identity, nil
}

// Update はアカウント情報を更新する。
// メールアドレスが変更された場合はclaimの付け替えを同一トランザクションで行う。
func (r *PostgresIdentityRepo) Update(ctx context.Context, identity *model.Identity, oldEmail string) error {
	table, err := tableForRole(identity.Role)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if identity.Email != oldEmail {
		_, err = tx.ExecContext(ctx,
			`UPDATE account_emails SET email = $1 WHERE email = $2`,
			identity.Email, oldEmail,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("failed to reclaim email: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET email = $1, name = $2, phone = $3, password_hash = $4,
		 avatar_url = $5, updated_at = $6 WHERE id = $7`, table),
		identity.Email, identity.Name, identity.Phone, identity.PasswordHash,
		identity.AvatarURL, identity.UpdatedAt, identity.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update identity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("identity not found: %s", identity.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// isUniqueViolation はPostgreSQLのunique制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// compile-time interface check
var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
