// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NotesSanitizerService はユーザーが投稿に記入する自由記述欄
// （経路の補足、車両の説明など）をサニタイズし、保存時点で
// HTMLタグを一切含まないプレーンテキストに正規化する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NotesSanitizerService は自由記述テキストのサニタイズ機能のインターフェースを定義する。
// 投稿の保存前に使用される。
type NotesSanitizerService interface {
	// Sanitize は入力からHTMLタグをすべて除去したプレーンテキストを返す。
	// 投稿の自由記述欄はリッチテキストを想定しないため、許可タグは存在しない。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// notesSanitizer はNotesSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type notesSanitizer struct {
	policy *bluemonday.Policy
}

// NewNotesSanitizer はNotesSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全タグを除去し、テキストノードのみを残す。
func NewNotesSanitizer() *notesSanitizer {
	return &notesSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLタグをすべて除去し、前後の空白をトリムして返す。
func (s *notesSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
