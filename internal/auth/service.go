package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/rideshare/internal/model"
	"github.com/hitoshi/rideshare/internal/repository"
)

// secretHasher はパスワードのハッシュ化・照合インターフェース。
type secretHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) (bool, error)
}

// tokenIssuer はセッショントークン発行のインターフェース。
type tokenIssuer interface {
	Issue(identityID string, role model.Role) (string, error)
}

// AvatarFetcher は外部URLのアバター画像を検証し、保存可能な参照を返す
// インターフェース。画像変換サブシステムへの委譲点。
type AvatarFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// LoginResult はログイン成功時に返すトークンとアカウントスナップショット。
type LoginResult struct {
	Token    string
	Identity *model.Identity
}

// Service は認証に関するビジネスロジックを提供する。
// ローカルパスワード認証と外部IdP連携認証を単一のアカウント空間に統合する。
type Service struct {
	identities repository.IdentityRepository
	hasher     secretHasher
	tokens     tokenIssuer
	verifier   AssertionVerifier
	avatars    AvatarFetcher
}

// NewService はServiceを生成する。
// avatarsはnil可（アバター取得を行わない構成）。
func NewService(
	identities repository.IdentityRepository,
	hasher secretHasher,
	tokens tokenIssuer,
	verifier AssertionVerifier,
	avatars AvatarFetcher,
) *Service {
	return &Service{
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
		verifier:   verifier,
		avatars:    avatars,
	}
}

// Login はメールアドレスとパスワードによるローカル認証を行い、
// セッショントークンとアカウントスナップショットを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" {
		return nil, model.NewValidationError("email", "必須項目です")
	}
	if password == "" {
		return nil, model.NewValidationError("password", "必須項目です")
	}

	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		slog.Error("failed to find identity by email", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if identity == nil {
		return nil, model.NewIdentityNotFoundError()
	}

	match, err := s.hasher.Verify(password, identity.PasswordHash)
	if err != nil {
		// 照合処理自体の失敗は「不一致」として扱わない
		slog.Error("password verification failed",
			slog.String("identity_id", identity.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewInternalError()
	}
	if !match {
		return nil, model.NewWrongPasswordError()
	}

	token, err := s.tokens.Issue(identity.ID, identity.Role)
	if err != nil {
		slog.Error("failed to issue token", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	slog.Info("user logged in",
		slog.String("identity_id", identity.ID),
		slog.String("role", string(identity.Role)),
	)

	return &LoginResult{Token: token, Identity: identity}, nil
}

// LoginWithGoogle は外部IdPアサーションによる認証を行う。
// 検証済みメールアドレスのアカウントが未登録の場合は、ローカルログイン
// 不可能なランダム認証情報を持つ乗客アカウントを自動作成する。
// 登録済みの場合は種別を問わず既存アカウントのログインとして扱う。
// 検証の失敗理由は呼び出し側に開示せず、ログにのみ記録する。
func (s *Service) LoginWithGoogle(ctx context.Context, assertion string) (*LoginResult, error) {
	claims, err := s.verifier.VerifyAssertion(ctx, assertion)
	if err != nil {
		slog.Warn("federated assertion verification failed", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	identity, err := s.identities.FindByEmail(ctx, claims.Email)
	if err != nil {
		slog.Error("failed to find identity by email", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	if identity == nil {
		identity, err = s.createFederatedIdentity(ctx, claims)
		if err != nil {
			return nil, err
		}
	}

	token, err := s.tokens.Issue(identity.ID, identity.Role)
	if err != nil {
		slog.Error("failed to issue token", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	slog.Info("federated user logged in",
		slog.String("identity_id", identity.ID),
		slog.String("role", string(identity.Role)),
	)

	return &LoginResult{Token: token, Identity: identity}, nil
}

// createFederatedIdentity は外部IdP経由の新規アカウントを作成する。
// 電話番号は空のまま登録し、後からプロフィール更新で設定させる。
func (s *Service) createFederatedIdentity(ctx context.Context, claims *FederatedClaims) (*model.Identity, error) {
	// ローカルログイン経路では使用不可能な認証情報を生成する。
	// 平文は本人にも配布されないため、パスワードログインは事実上無効となる。
	secret, err := generateOpaqueSecret()
	if err != nil {
		slog.Error("failed to generate opaque secret", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		slog.Error("failed to hash opaque secret", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	avatarURL := ""
	if s.avatars != nil && claims.Picture != "" {
		avatarURL, err = s.avatars.Fetch(ctx, claims.Picture)
		if err != nil {
			// アバター取得失敗はアカウント作成を妨げない
			slog.Warn("failed to fetch federated avatar", slog.String("error", err.Error()))
			avatarURL = ""
		}
	}

	now := time.Now()
	identity := &model.Identity{
		ID:           uuid.New().String(),
		Role:         model.RolePassenger,
		Email:        claims.Email,
		Name:         claims.Name,
		Phone:        "",
		PasswordHash: hash,
		AvatarURL:    avatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// 同時登録との競合。ストレージ制約が勝者を決めるため、
			// 敗者側は既存アカウントを引き直してログイン経路に合流する。
			existing, findErr := s.identities.FindByEmail(ctx, claims.Email)
			if findErr == nil && existing != nil {
				return existing, nil
			}
		}
		slog.Error("failed to create federated identity", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	slog.Info("federated identity created",
		slog.String("identity_id", identity.ID),
		slog.String("email", identity.Email),
	)

	return identity, nil
}

// generateOpaqueSecret は攻撃者が制御できない乱数から認証情報を生成する。
func generateOpaqueSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
