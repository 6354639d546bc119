package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/nao1215/cryptomarket/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer はモックのアップストリームAPIに接続するテスト用Gatewayサーバーを生成する。
// configure で設定を上書きできる。
func newTestServer(t *testing.T, upstream http.Handler, configure func(*config.Config)) *Server {
	t.Helper()

	backend := httptest.NewServer(upstream)
	t.Cleanup(backend.Close)

	cfg := config.FromEnv(func(string) string { return "" })
	cfg.CryptoAPIBaseURL = backend.URL + "/"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "cryptomarket.db")
	cfg.JWTSecret = "test-secret-key"
	if configure != nil {
		configure(&cfg)
	}

	s, err := NewServer(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("サーバーの生成に失敗: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// upstreamItems は n 件のコインを返すJSON配列を生成する。
func upstreamItems(n int) []byte {
	items := make([]map[string]string, 0, n)
	for i := range n {
		items = append(items, map[string]string{"id": fmt.Sprintf("coin-%d", i), "symbol": "c", "name": "Coin"})
	}
	b, _ := json.Marshal(items)
	return b
}

// serveJSON は固定のJSONを返すハンドラを返す。
func serveJSON(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

// unreachableBaseURL は接続を受け付けないベースURLを返す。
func unreachableBaseURL() string {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL + "/"
	dead.Close()
	return url
}

// loginToken はユーザーを登録してログインし、トークンを返す。
func loginToken(t *testing.T, s *Server) string {
	t.Helper()

	register := `{"email":"test@gmail.com","password":"Testing@1234","confirm_password":"Testing@1234","first_name":"Test","last_name":"user"}`
	if w := doRequest(s, http.MethodPost, "/v1/register", register, ""); w.Code != http.StatusCreated {
		t.Fatalf("ユーザー登録に失敗: %d %s", w.Code, w.Body.String())
	}
	w := doRequest(s, http.MethodPost, "/v1/login", `{"email":"test@gmail.com","password":"Testing@1234"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("ログインに失敗: %d %s", w.Code, w.Body.String())
	}
	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Data.Token == "" {
		t.Fatalf("トークンの取得に失敗: %v (body=%s)", err, w.Body.String())
	}
	return body.Data.Token
}

// doRequest はリクエストを送信してレスポンスを返す。tokenが空の場合は認証ヘッダーを付けない。
func doRequest(s *Server, method, target, body, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

// decode はレスポンスボディをmapにデコードする。
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v (body=%s)", err, w.Body.String())
	}
	return body
}

// keysOf はmapのキーを昇順で返す。
func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// envelopeKeys はデータエンドポイントのエンベロープが持つキー（昇順）。
var envelopeKeys = []string{"count", "data", "message", "next", "page_count", "previous", "status", "status_code"}

// marketUpstream はコイン一覧、カテゴリ、マーケットデータを返すモックAPI。
func marketUpstream(listCount int) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/list", serveJSON(upstreamItems(listCount)))
	mux.HandleFunc("/coins/categories/list", serveJSON([]byte(`[{"category_id":"defi","name":"DeFi"},{"category_id":"layer-1","name":"Layer 1"}]`)))
	mux.HandleFunc("/coins/markets", serveJSON(upstreamItems(3)))
	mux.HandleFunc("/ping", serveJSON([]byte(`{"gecko_says":"(V3) To the Moon!"}`)))
	return mux
}

// TestAuthentication はデータエンドポイントの認証を検証する。
func TestAuthentication(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, marketUpstream(3), nil)

	for _, path := range []string{"/v1/coin-list", "/v1/coin-categories", "/v1/coin-market", "/v1/health-check"} {
		t.Run(path+" は認証なしで401が返ること", func(t *testing.T) {
			t.Parallel()

			w := doRequest(s, http.MethodGet, path, "", "")
			if w.Code != http.StatusUnauthorized {
				t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}

	t.Run("Basic認証でもアクセスできること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), nil)
		loginToken(t, s)

		req := httptest.NewRequest(http.MethodGet, "/v1/coin-list", nil)
		req.SetBasicAuth("test@gmail.com", "Testing@1234")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}
	})
}

// TestHandleCoinList はコイン一覧エンドポイントを検証する。
func TestHandleCoinList(t *testing.T) {
	t.Parallel()

	t.Run("3件をページサイズ10で返すとpage_countが0になること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), nil)
		token := loginToken(t, s)

		w := doRequest(s, http.MethodGet, "/v1/coin-list", "", token)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}
		body := decode(t, w)
		if got := keysOf(body); strings.Join(got, ",") != strings.Join(envelopeKeys, ",") {
			t.Errorf("キー = %v, want %v", got, envelopeKeys)
		}
		if data := body["data"].([]any); len(data) != 3 {
			t.Errorf("len(data) = %d, want 3", len(data))
		}
		if body["count"] != float64(3) {
			t.Errorf("count = %v, want 3", body["count"])
		}
		if body["page_count"] != float64(0) {
			t.Errorf("page_count = %v, want 0", body["page_count"])
		}
		if body["next"] != nil || body["previous"] != nil {
			t.Errorf("next = %v, previous = %v, want null", body["next"], body["previous"])
		}
		if body["status"] != true || body["status_code"] != float64(200) || body["message"] != "Success" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("ページ番号とページサイズに従って分割されること", func(t *testing.T) {
		t.Parallel()

		// httptest.NewRequest の接続元は 192.0.2.1
		s := newTestServer(t, marketUpstream(25), func(cfg *config.Config) {
			cfg.TrustedProxies = []string{"192.0.2.0/24"}
		})
		token := loginToken(t, s)

		req := httptest.NewRequest(http.MethodGet, "/v1/coin-list?per_page=10&page=2", nil)
		req.Header.Set("Authorization", "Token "+token)
		req.Header.Set("X-Forwarded-Proto", "https")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		body := decode(t, w)
		if body["count"] != float64(25) || body["page_count"] != float64(2) {
			t.Errorf("count = %v, page_count = %v, want 25, 2", body["count"], body["page_count"])
		}
		data := body["data"].([]any)
		if len(data) != 10 {
			t.Fatalf("len(data) = %d, want 10", len(data))
		}
		if first := data[0].(map[string]any)["id"]; first != "coin-10" {
			t.Errorf("data[0].id = %v, want coin-10", first)
		}
		if want := "https://example.com/v1/coin-list?page=3&per_page=10"; body["next"] != want {
			t.Errorf("next = %v, want %s", body["next"], want)
		}
		if want := "https://example.com/v1/coin-list?per_page=10"; body["previous"] != want {
			t.Errorf("previous = %v, want %s", body["previous"], want)
		}
	})

	t.Run("信頼しない接続元のX-Forwarded-Protoはリンクに反映されないこと", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(25), nil)
		token := loginToken(t, s)

		req := httptest.NewRequest(http.MethodGet, "/v1/coin-list?page=2", nil)
		req.Header.Set("Authorization", "Token "+token)
		req.Header.Set("X-Forwarded-Proto", "https")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)

		if want := "http://example.com/v1/coin-list?page=3"; decode(t, w)["next"] != want {
			t.Errorf("next = %v, want %s", decode(t, w)["next"], want)
		}
	})

	t.Run("httpとhttps以外のX-Forwarded-Protoは無視されること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(25), func(cfg *config.Config) {
			cfg.TrustedProxies = []string{"192.0.2.1"}
		})
		token := loginToken(t, s)

		for _, proto := range []string{"javascript", "ftp", ""} {
			req := httptest.NewRequest(http.MethodGet, "/v1/coin-list", nil)
			req.Header.Set("Authorization", "Token "+token)
			req.Header.Set("X-Forwarded-Proto", proto)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if want := "http://example.com/v1/coin-list?page=2"; decode(t, w)["next"] != want {
				t.Errorf("X-Forwarded-Proto=%q: next = %v, want %s", proto, decode(t, w)["next"], want)
			}
		}
	})

	t.Run("範囲外のページ番号は200とエラーが返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), nil)
		token := loginToken(t, s)

		for _, page := range []string{"99", "abc", "0"} {
			w := doRequest(s, http.MethodGet, "/v1/coin-list?page="+page, "", token)
			if w.Code != http.StatusOK {
				t.Errorf("page=%s: ステータスコード = %d, want %d", page, w.Code, http.StatusOK)
			}
			if body := decode(t, w); body["error"] != "Invalid page." {
				t.Errorf("page=%s: body = %v", page, body)
			}
		}
	})

	t.Run("lastで最終ページが返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(25), nil)
		token := loginToken(t, s)

		w := doRequest(s, http.MethodGet, "/v1/coin-list?page=last", "", token)
		body := decode(t, w)
		if data := body["data"].([]any); len(data) != 5 {
			t.Errorf("len(data) = %d, want 5", len(data))
		}
		if body["next"] != nil {
			t.Errorf("next = %v, want null", body["next"])
		}
	})
}

// TestHandleCoinCategories はカテゴリ一覧エンドポイントを検証する。
func TestHandleCoinCategories(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, marketUpstream(3), nil)
	token := loginToken(t, s)

	w := doRequest(s, http.MethodGet, "/v1/coin-categories?per_page=1", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
	body := decode(t, w)
	if got := keysOf(body); strings.Join(got, ",") != strings.Join(envelopeKeys, ",") {
		t.Errorf("キー = %v, want %v", got, envelopeKeys)
	}
	if body["count"] != float64(2) || body["page_count"] != float64(2) {
		t.Errorf("count = %v, page_count = %v, want 2, 2", body["count"], body["page_count"])
	}
	data := body["data"].([]any)
	if len(data) != 1 || data[0].(map[string]any)["category_id"] != "defi" {
		t.Errorf("data = %v", data)
	}
	if body["next"] == nil {
		t.Error("next が null")
	}
}

// TestHandleCoinMarket はマーケットデータエンドポイントを検証する。
func TestHandleCoinMarket(t *testing.T) {
	t.Parallel()

	t.Run("クエリがアップストリームへ転送され、結果がエンベロープに詰め直されること", func(t *testing.T) {
		t.Parallel()

		var gotQuery string
		upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/coins/markets" {
				http.NotFound(w, r)
				return
			}
			gotQuery = r.URL.RawQuery
			serveJSON(upstreamItems(5))(w, r)
		})
		s := newTestServer(t, upstream, nil)
		token := loginToken(t, s)

		w := doRequest(s, http.MethodGet, "/v1/coin-market?per_page=5&page=2&ids=bitcoin", "", token)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}
		if want := "ids=bitcoin&page=2&per_page=5&vs_currency=cad"; gotQuery != want {
			t.Errorf("アップストリームへのクエリ = %q, want %q", gotQuery, want)
		}
		body := decode(t, w)
		if got := keysOf(body); strings.Join(got, ",") != strings.Join(envelopeKeys, ",") {
			t.Errorf("キー = %v, want %v", got, envelopeKeys)
		}
		if body["count"] != float64(5) || body["page_count"] != float64(1) {
			t.Errorf("count = %v, page_count = %v, want 5, 1", body["count"], body["page_count"])
		}
		if body["next"] == nil || body["previous"] == nil {
			t.Errorf("next = %v, previous = %v, want both present", body["next"], body["previous"])
		}
	})

	t.Run("アップストリームに接続できない場合は200とエラーが返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), func(cfg *config.Config) {
			cfg.CryptoAPIBaseURL = unreachableBaseURL()
		})
		token := loginToken(t, s)

		w := doRequest(s, http.MethodGet, "/v1/coin-market", "", token)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		body := decode(t, w)
		if len(body) != 1 || body["error"] == "" || body["error"] == nil {
			t.Errorf("body = %v, want only {\"error\": ...}", body)
		}
	})
}

// TestStrictUpstreamErrors は StrictUpstreamErrors 有効時のステータスを検証する。
func TestStrictUpstreamErrors(t *testing.T) {
	t.Parallel()

	strict := func(cfg *config.Config) {
		cfg.StrictUpstreamErrors = true
		cfg.FetchTimeout = 50 * time.Millisecond
	}

	t.Run("アップストリームの500は502になること", func(t *testing.T) {
		t.Parallel()

		upstream := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		s := newTestServer(t, upstream, strict)
		token := loginToken(t, s)

		w := doRequest(s, http.MethodGet, "/v1/coin-list", "", token)
		if w.Code != http.StatusBadGateway {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadGateway)
		}
		if body := decode(t, w); body["error"] != "API request failed with status: 500" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("タイムアウトは504になること", func(t *testing.T) {
		t.Parallel()

		upstream := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		})
		s := newTestServer(t, upstream, strict)
		token := loginToken(t, s)

		w := doRequest(s, http.MethodGet, "/v1/coin-market", "", token)
		if w.Code != http.StatusGatewayTimeout {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusGatewayTimeout)
		}
	})

	t.Run("接続できない場合は502になること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), func(cfg *config.Config) {
			strict(cfg)
			cfg.CryptoAPIBaseURL = unreachableBaseURL()
		})
		token := loginToken(t, s)

		w := doRequest(s, http.MethodGet, "/v1/coin-market", "", token)
		if w.Code != http.StatusBadGateway {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadGateway)
		}
	})

	t.Run("範囲外のページ番号は404になること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), strict)
		token := loginToken(t, s)

		w := doRequest(s, http.MethodGet, "/v1/coin-list?page=5", "", token)
		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestHandleHealthCheck はヘルスチェックエンドポイントを検証する。
func TestHandleHealthCheck(t *testing.T) {
	t.Parallel()

	t.Run("依存サービスが正常なら200とhealthyが返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), nil)
		token := loginToken(t, s)

		w := doRequest(s, http.MethodGet, "/v1/health-check", "", token)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}
		body := decode(t, w)
		if body["app_name"] != "Crypto Market" || body["version"] != "1.0.0" || body["status"] != "healthy" {
			t.Errorf("body = %v", body)
		}
		if _, err := time.Parse(time.RFC3339, body["timestamp"].(string)); err != nil {
			t.Errorf("timestamp = %v: %v", body["timestamp"], err)
		}
		services := body["services"].(map[string]any)
		api := services["crypto_api"].(map[string]any)
		if api["status"] != "healthy" {
			t.Errorf("crypto_api = %v", api)
		}
		if _, ok := api["error"]; ok {
			t.Errorf("正常時に error が含まれている: %v", api)
		}
	})

	t.Run("依存サービスが異常なら503とunhealthyが返ること", func(t *testing.T) {
		t.Parallel()

		upstream := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		s := newTestServer(t, upstream, nil)
		token := loginToken(t, s)

		w := doRequest(s, http.MethodGet, "/v1/health-check", "", token)
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
		body := decode(t, w)
		if body["status"] != "unhealthy" {
			t.Errorf("status = %v, want unhealthy", body["status"])
		}
		api := body["services"].(map[string]any)["crypto_api"].(map[string]any)
		if api["status"] != "unhealthy" || api["error"] == nil {
			t.Errorf("crypto_api = %v", api)
		}
	})
}

// TestOperationalEndpoints は死活確認とメトリクスを検証する。
func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("死活確認は認証なしで200が返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), nil)
		w := doRequest(s, http.MethodGet, "/health", "", "")
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if body := decode(t, w); body["status"] != "ok" || body["service"] != "cryptomarket" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("アップストリーム呼び出しがメトリクスに記録されること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), nil)
		token := loginToken(t, s)
		doRequest(s, http.MethodGet, "/v1/coin-list", "", token)
		doRequest(s, http.MethodGet, "/v1/health-check", "", token)

		w := doRequest(s, http.MethodGet, "/metrics", "", "")
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		metrics := w.Body.String()
		for _, want := range []string{
			`cryptomarket_upstream_requests_total{outcome="ok",path="coins/list"} 1`,
			`cryptomarket_upstream_request_duration_seconds_count{path="coins/list"} 1`,
			`cryptomarket_dependency_up{service="crypto_api"} 1`,
		} {
			if !strings.Contains(metrics, want) {
				t.Errorf("メトリクスに %q が含まれていない", want)
			}
		}
	})

	t.Run("上限を超えたリクエストは429になること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), func(cfg *config.Config) {
			cfg.RateLimitPerMinute = 1
		})

		if w := doRequest(s, http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
			t.Fatalf("1回目: ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		w := doRequest(s, http.MethodGet, "/health", "", "")
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("2回目: ステータスコード = %d, want %d", w.Code, http.StatusTooManyRequests)
		}
		if w.Header().Get("Retry-After") == "" {
			t.Error("Retry-After ヘッダーがない")
		}
		if got := testutil.ToFloat64(s.metrics.rateLimitRejectionsTotal); got != 1 {
			t.Errorf("拒否数 = %v, want 1", got)
		}
	})

	t.Run("X-Forwarded-Forを変えても同じ接続元は制限されること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), func(cfg *config.Config) {
			cfg.RateLimitPerMinute = 1
		})

		var got []int
		for i := range 5 {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = "203.0.113.7:4321"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)
			got = append(got, w.Code)
		}

		want := []int{200, 429, 429, 429, 429}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("ステータスコード = %v, want %v", got, want)
		}
	})

	t.Run("信頼するプロキシ経由ではX-Forwarded-Forごとに制限されること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, marketUpstream(3), func(cfg *config.Config) {
			cfg.RateLimitPerMinute = 1
			cfg.TrustedProxies = []string{"203.0.113.7"}
		})

		for i := range 3 {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = "203.0.113.7:4321"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("10.0.0.%d: ステータスコード = %d, want %d", i, w.Code, http.StatusOK)
			}
		}
	})
}

// TestNewServer はサーバー生成時の設定検証を確認する。
func TestNewServer(t *testing.T) {
	t.Parallel()

	t.Run("不正な信頼するプロキシの指定はエラーになること", func(t *testing.T) {
		t.Parallel()

		cfg := config.FromEnv(func(string) string { return "" })
		cfg.DatabasePath = filepath.Join(t.TempDir(), "cryptomarket.db")
		cfg.TrustedProxies = []string{"not-an-ip"}

		if _, err := NewServer(context.Background(), cfg, zaptest.NewLogger(t)); err == nil {
			t.Error("エラーが返るべき")
		}
	})
}
