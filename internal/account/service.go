// Package account はアカウントの登録・更新のドメインロジックを提供する。
// メールアドレスの両種別横断一意性と入力値検証を担う。
package account

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/hitoshi/rideshare/internal/model"
	"github.com/hitoshi/rideshare/internal/repository"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// secretHasher はパスワードのハッシュ化インターフェース。
type secretHasher interface {
	Hash(secret string) (string, error)
}

// RegisterInput はアカウント登録の入力。
type RegisterInput struct {
	Email    string
	Name     string
	Phone    string
	Password string
}

// UpdateInput はプロフィール更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Email    *string
	Name     *string
	Phone    *string
	Password *string
}

// Service はアカウント管理のサービス層。
type Service struct {
	identities repository.IdentityRepository
	hasher     secretHasher
}

// NewService はServiceを生成する。
func NewService(identities repository.IdentityRepository, hasher secretHasher) *Service {
	return &Service{
		identities: identities,
		hasher:     hasher,
	}
}

// Register は指定種別の新規アカウントを作成する。
// メールアドレスは乗客・ドライバー両種別をまたいで一意でなければならない。
// 事前のExistsByEmailは高速パスのヒントであり、権威的な判定は
// ストレージ層のunique制約（repository.ErrDuplicateEmail）が行う。
func (s *Service) Register(ctx context.Context, role model.Role, in RegisterInput) (*model.Identity, error) {
	if !role.Valid() {
		return nil, model.NewValidationError("role", "不明なアカウント種別です")
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if err := validatePhone(in.Phone); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	exists, err := s.identities.ExistsByEmail(ctx, in.Email)
	if err != nil {
		slog.Error("failed to check email existence", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if exists {
		return nil, model.NewDuplicateEmailError(in.Email)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		slog.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	now := time.Now()
	identity := &model.Identity{
		ID:           uuid.New().String(),
		Role:         role,
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		Phone:        in.Phone,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateEmailError(in.Email)
		}
		slog.Error("failed to create identity", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	slog.Info("identity registered",
		slog.String("identity_id", identity.ID),
		slog.String("role", string(role)),
	)

	return identity, nil
}

// UpdateProfile はアカウント情報を部分更新する。
// メールアドレス変更時は自身のレコードを除いた一意性を再検証し、
// パスワード変更はハッシュ化を経由する。
func (s *Service) UpdateProfile(ctx context.Context, role model.Role, id string, in UpdateInput) (*model.Identity, error) {
	identity, err := s.identities.FindByID(ctx, role, id)
	if err != nil {
		slog.Error("failed to find identity", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if identity == nil {
		return nil, model.NewIdentityNotFoundError()
	}

	oldEmail := identity.Email

	if in.Email != nil && *in.Email != identity.Email {
		if err := validateEmail(*in.Email); err != nil {
			return nil, err
		}
		exists, err := s.identities.ExistsByEmail(ctx, *in.Email)
		if err != nil {
			slog.Error("failed to check email existence", slog.String("error", err.Error()))
			return nil, model.NewInternalError()
		}
		if exists {
			return nil, model.NewDuplicateEmailError(*in.Email)
		}
		identity.Email = *in.Email
	}

	if in.Name != nil {
		if err := validateName(*in.Name); err != nil {
			return nil, err
		}
		identity.Name = strings.TrimSpace(*in.Name)
	}

	if in.Phone != nil {
		if err := validatePhone(*in.Phone); err != nil {
			return nil, err
		}
		identity.Phone = *in.Phone
	}

	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			slog.Error("failed to hash password", slog.String("error", err.Error()))
			return nil, model.NewInternalError()
		}
		identity.PasswordHash = hash
	}

	identity.UpdatedAt = time.Now()

	if err := s.identities.Update(ctx, identity, oldEmail); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateEmailError(identity.Email)
		}
		slog.Error("failed to update identity", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	slog.Info("identity updated",
		slog.String("identity_id", identity.ID),
		slog.String("role", string(role)),
	)

	return identity, nil
}

// validateEmail はメールアドレスの形式を検証する。
func validateEmail(email string) error {
	if email == "" {
		return model.NewValidationError("email", "必須項目です")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return model.NewValidationError("email", "メールアドレスの形式が不正です")
	}
	return nil
}

// validateName は氏名を検証する。英字・かな・漢字などの文字と空白のみ許可する。
func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return model.NewValidationError("name", "必須項目です")
	}
	for _, r := range trimmed {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return model.NewValidationError("name", "氏名に使用できない文字が含まれています")
		}
	}
	return nil
}

// validatePhone は電話番号を検証する。ちょうど10桁の数字のみ許可する。
func validatePhone(phone string) error {
	if phone == "" {
		return model.NewValidationError("phone", "必須項目です")
	}
	if len(phone) != 10 {
		return model.NewValidationError("phone", "電話番号は10桁で入力してください")
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return model.NewValidationError("phone", "電話番号は数字のみで入力してください")
		}
	}
	return nil
}

// validatePassword はパスワードを検証する。トリム後8文字以上を要求する。
func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return model.NewValidationError("password", "必須項目です")
	}
	if len(strings.TrimSpace(password)) < minPasswordLength {
		return model.NewValidationError("password", "パスワードは8文字以上で入力してください")
	}
	return nil
}
