package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout はデータ取得リクエスト1回あたりのデフォルトタイムアウト。
const DefaultTimeout = 10 * time.Second

// maxErrorBodyBytes はエラーレスポンスのボディを読み捨てる際の上限。
const maxErrorBodyBytes = 4 << 10

// Observer はアップストリーム呼び出しの結果を受け取る。
// メトリクス収集のために使用する。
type Observer interface {
	// ObserveFetch はパス、結果種別、所要時間を記録する。
	ObserveFetch(path, outcome string, elapsed time.Duration)
}

// Client はアップストリームAPI用のHTTPクライアント。
// 生成後は不変であり、複数のリクエストから並行して共有できる。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先APIのベースURL。パスはこの後ろにそのまま連結される。
	baseURL string
	// name はエラーメッセージに使うアップストリームの表示名。
	name string
	// timeout は1回の呼び出しに適用するタイムアウト。
	timeout time.Duration
	// logger は失敗時のログ出力先。
	logger *zap.Logger
	// observer は呼び出し結果の通知先。nilの場合は通知しない。
	observer Observer
}

// Option は Client の設定を変更する関数。
type Option func(*Client)

// WithTimeout は呼び出しごとのタイムアウトを設定する。0以下の値は無視する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient は内部で使用する http.Client を差し替える。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithName はエラーメッセージに使うアップストリーム名を設定する。
func WithName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger はロガーを設定する。
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver は呼び出し結果の通知先を設定する。
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New は新しいアップストリーム用HTTPクライアントを生成する。
// baseURLには末尾スラッシュ付きのベースURL（例: "https://api.coingecko.com/api/v3/"）を指定する。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		name:       "upstream",
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL は接続先のベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout は1回の呼び出しに適用されるタイムアウトを返す。
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Fetch は指定パスにGETリクエストを送信し、JSON配列の各要素を解釈せずにそのまま返す。
// paramsのうち値が無いキーはクエリに含めない。
// 失敗した場合は必ず *FetchError を返す。
func (c *Client) Fetch(ctx context.Context, path string, params Params) ([]json.RawMessage, error) {
	started := time.Now()
	items, err := c.fetch(ctx, path, params)
	c.observe(path, err, time.Since(started))
	if err != nil {
		c.logger.Error("アップストリームAPIの呼び出しに失敗",
			zap.String("upstream", c.name),
			zap.String("path", path),
			zap.Int("status_code", err.StatusCode),
			zap.Stringer("kind", err.Kind),
			zap.Error(err.Err),
		)
		return nil, err
	}
	return items, nil
}

// fetch は Fetch の本体。エラーを具象型で返す。
func (c *Client) fetch(ctx context.Context, path string, params Params) ([]json.RawMessage, *FetchError) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, ferr := c.get(ctx, path, params)
	if ferr != nil {
		return nil, ferr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.newError(KindUnreachable, 0, "", fmt.Errorf("レスポンスの読み取りに失敗: %w", err))
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, c.newError(KindInvalidResponse, resp.StatusCode, "", fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err))
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

// Probe は指定パスにGETリクエストを送信し、2xxで応答したかどうかだけを確認する。
// ボディは解釈しない。ヘルスチェック用。
func (c *Client) Probe(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, ferr := c.get(ctx, path, nil)
	if ferr != nil {
		return ferr
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
	_ = resp.Body.Close()
	return nil
}

// get はGETリクエストを送信し、2xxの場合のみレスポンスを返す。
// 呼び出し側がレスポンスボディを閉じる責任を持つ。
func (c *Client) get(ctx context.Context, path string, params Params) (*http.Response, *FetchError) {
	url := c.baseURL + path
	if q := params.Encode(); q != "" {
		url += "?" + q
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, c.newError(KindUnreachable, 0, "", fmt.Errorf("HTTPリクエストの作成に失敗: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.newError(KindUnreachable, 0, "", fmt.Errorf("HTTPリクエストの送信に失敗: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
		_ = resp.Body.Close()
		return nil, c.newError(KindUpstreamRejected, resp.StatusCode, http.StatusText(resp.StatusCode), nil)
	}
	return resp, nil
}

func (c *Client) newError(kind ErrorKind, status int, reason string, err error) *FetchError {
	return &FetchError{
		Kind:       kind,
		Upstream:   c.name,
		StatusCode: status,
		Reason:     reason,
		Err:        err,
	}
}

func (c *Client) observe(path string, err *FetchError, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = err.Kind.String()
	}
	c.observer.ObserveFetch(path, outcome, elapsed)
}
