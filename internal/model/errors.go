// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeDuplicateEmail      = "DUPLICATE_EMAIL"
	ErrCodeWrongPassword       = "WRONG_PASSWORD"
	ErrCodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	ErrCodeExpiredToken        = "EXPIRED_TOKEN"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodeMalformedToken      = "MALFORMED_TOKEN"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodePostNotFound        = "POST_NOT_FOUND"
	ErrCodeJoinRequestNotFound = "JOIN_REQUEST_NOT_FOUND"
	ErrCodeDanglingReference   = "DANGLING_REFERENCE"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s（%s）", field, reason),
		Category: "validation",
		Action:   "入力内容を確認してから再度お試しください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
// 乗客・ドライバーの両種別をまたいだ一意性制約違反を表す。
func NewDuplicateEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  fmt.Sprintf("このメールアドレスは既に登録されています: %s", email),
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewWrongPasswordError はパスワード不一致エラーを生成する。
func NewWrongPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongPassword,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認してから再度ログインしてください。",
	}
}

// NewIdentityNotFoundError はアカウントが見つからない場合のエラーを生成する。
// トークンは有効だがアカウントが削除済みの照合ケースにも使用する。
func NewIdentityNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeIdentityNotFound,
		Message:  "アカウントが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewExpiredTokenError はトークン期限切れエラーを生成する。
func NewExpiredTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeExpiredToken,
		Message:  "認証トークンの有効期限が切れています。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewInvalidSignatureError はトークン署名不正エラーを生成する。
func NewInvalidSignatureError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSignature,
		Message:  "認証トークンの署名が不正です。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewMalformedTokenError はトークン形式不正エラーを生成する。
func NewMalformedTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeMalformedToken,
		Message:  "認証トークンの形式が不正です。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewUnauthorizedError は認証が必要な場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を実行する権限がありません。",
		Category: "auth",
		Action:   "自分が所有するリソースに対してのみ操作できます。",
	}
}

// NewPostNotFoundError は投稿が見つからない場合のエラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "validation",
		Action:   "投稿IDを確認してください。",
	}
}

// NewJoinRequestNotFoundError は参加リクエストが見つからない場合のエラーを生成する。
func NewJoinRequestNotFoundError(requestID string) *APIError {
	return &APIError{
		Code:     ErrCodeJoinRequestNotFound,
		Message:  fmt.Sprintf("指定された参加リクエストが見つかりません: %s", requestID),
		Category: "validation",
		Action:   "リクエストIDを確認してください。",
	}
}

// NewDanglingReferenceError は参照先のDriverPostが解決できない場合のエラーを生成する。
// 一覧処理では該当レコードのみをスキップし、全体を失敗させない。
func NewDanglingReferenceError(requestID, postID string) *APIError {
	return &APIError{
		Code:     ErrCodeDanglingReference,
		Message:  fmt.Sprintf("参加リクエスト %s の参照先投稿 %s が解決できません。", requestID, postID),
		Category: "system",
		Action:   "該当リクエストは一覧から除外されます。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
