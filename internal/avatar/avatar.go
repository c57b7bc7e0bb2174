// Package avatar はアバター画像参照の取得と解決を提供する。
// 画像の変換・リサイズは外部の画像サブシステムの責務であり、
// ここでは参照の検証と表示用形式への解決のみを行う。
package avatar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/rideshare/internal/security"
)

// defaultFetchTimeout はアバター取得のデフォルトタイムアウト。
const defaultFetchTimeout = 10 * time.Second

// defaultMaxSize はアバター画像のデフォルト最大サイズ（5MB）。
const defaultMaxSize int64 = 5 * 1024 * 1024

// Fetcher は外部URLのアバター画像を検証し、保存可能な参照を返す。
// 外部IdPが返すプロフィール画像URLは外部入力であるため、
// SSRFガード経由で到達可能性と画像であることを確認してから受け入れる。
type Fetcher struct {
	guard   security.SSRFGuardService
	timeout time.Duration
	maxSize int64
}

// NewFetcher はFetcherを生成する。
func NewFetcher(guard security.SSRFGuardService, timeout time.Duration, maxSize int64) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	return &Fetcher{
		guard:   guard,
		timeout: timeout,
		maxSize: maxSize,
	}
}

// Fetch はURLを検証し、取得可能な画像であればそのURLを参照として返す。
// 画像データ自体の保存・変換は行わない（画像サブシステムへの委譲点）。
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := f.guard.ValidateURL(rawURL); err != nil {
		return "", fmt.Errorf("avatar URL rejected: %w", err)
	}

	client := f.guard.NewSafeClient(f.timeout, f.maxSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("avatar fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avatar fetch returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("avatar is not an image: %s", contentType)
	}

	// サイズ上限までの読み捨てで取得可能性を確認する
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxSize)); err != nil {
		return "", fmt.Errorf("failed to read avatar body: %w", err)
	}

	return rawURL, nil
}

// Resolver は保存済みのアバター参照を表示用の形式に解決するインターフェース。
// 変換・CDN配信は画像サブシステムの責務であり、実装の差し替えで対応する。
type Resolver interface {
	Resolve(reference string) string
}

// URLResolver は参照をそのまま表示用URLとして返すResolver実装。
type URLResolver struct{}

// NewURLResolver はURLResolverを生成する。
func NewURLResolver() *URLResolver {
	return &URLResolver{}
}

// Resolve は保存済み参照をそのまま返す。参照が空の場合は空文字列を返す。
func (r *URLResolver) Resolve(reference string) string {
	return reference
}

// compile-time interface check
var _ Resolver = (*URLResolver)(nil)
