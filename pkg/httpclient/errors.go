package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorKind はアップストリーム呼び出しの失敗種別。
type ErrorKind int

const (
	// KindUnreachable はタイムアウトや接続拒否などでアップストリームに到達できなかったことを表す。
	KindUnreachable ErrorKind = iota + 1
	// KindUpstreamRejected はアップストリームが非2xxで応答したことを表す。
	KindUpstreamRejected
	// KindInvalidResponse はレスポンスボディを期待する形式で解釈できなかったことを表す。
	KindInvalidResponse
)

// String は種別をメトリクスラベル向けの文字列で返す。
func (k ErrorKind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindUpstreamRejected:
		return "rejected"
	case KindInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// FetchError はアップストリーム呼び出しの失敗を表す。
// Unreachable と UpstreamRejected は呼び出し側で区別して扱う。
type FetchError struct {
	// Kind は失敗種別。
	Kind ErrorKind
	// Upstream はアップストリームの表示名。
	Upstream string
	// StatusCode はアップストリームが返したHTTPステータス。到達できなかった場合は0。
	StatusCode int
	// Reason はステータスに対応する理由句。
	Reason string
	// Err は原因となったエラー。
	Err error
}

// Error はAPIレスポンスにそのまま載せられるメッセージを返す。
func (e *FetchError) Error() string {
	switch e.Kind {
	case KindUpstreamRejected:
		return fmt.Sprintf("API request failed with status: %d", e.StatusCode)
	case KindInvalidResponse:
		return fmt.Sprintf("Invalid response from %s.", e.Upstream)
	default:
		return fmt.Sprintf("Failed to fetch data from %s.", e.Upstream)
	}
}

// Unwrap は原因となったエラーを返す。
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Detail は原因を含む詳細なメッセージを返す。ヘルスチェックの報告に使う。
// ログ用の説明は含めず、通信エラーそのものの文言を返す。
func (e *FetchError) Detail() string {
	if e.Kind == KindUpstreamRejected {
		return fmt.Sprintf("%d %s", e.StatusCode, e.Reason)
	}
	var urlErr *url.Error
	if errors.As(e.Err, &urlErr) {
		return urlErr.Err.Error()
	}
	if cause := errors.Unwrap(e.Err); cause != nil {
		return cause.Error()
	}
	return e.Error()
}

// Timeout はタイムアウトによって失敗したかどうかを返す。
func (e *FetchError) Timeout() bool {
	if e.Kind != KindUnreachable || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
