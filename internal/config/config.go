// Package config はプロセス起動時に一度だけ構築される設定を提供する。
// 環境変数（任意で .env ファイル）から読み込み、各コンポーネントのコンストラクタへ明示的に渡す。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// AppName はヘルスチェックに表示するアプリケーション名。
	AppName string
	// AppVersion はヘルスチェックに表示するバージョン。
	AppVersion string
	// Env は実行環境（production / development）。
	Env string
	// LogLevel はログレベル。
	LogLevel string

	// CryptoAPIBaseURL はアップストリームAPIのベースURL。末尾は必ず "/"。
	CryptoAPIBaseURL string
	// CryptoAPIHealthPath はアップストリームのヘルスチェック用パス。
	CryptoAPIHealthPath string
	// FetchTimeout はデータ取得1回あたりのタイムアウト。
	FetchTimeout time.Duration
	// HealthCheckTimeout はヘルスチェック1件あたりのタイムアウト。
	HealthCheckTimeout time.Duration
	// DefaultPageSize はページサイズ未指定時の値。
	DefaultPageSize int
	// StrictUpstreamErrors がtrueの場合、アップストリームの失敗を502/504で返す。
	// falseの場合は200と {"error": ...} で返す（従来の挙動）。
	StrictUpstreamErrors bool

	// DatabasePath はSQLiteデータベースファイルのパス。
	DatabasePath string
	// JWTSecret はトークン署名用の秘密鍵。
	JWTSecret string
	// TokenTTL はトークンの有効期間。
	TokenTTL time.Duration

	// CORSAllowOrigins はCORSで許可するオリジン。
	CORSAllowOrigins []string
	// RateLimitPerMinute はクライアントIPごとの1分あたりの上限。0で無効。
	RateLimitPerMinute int
	// TrustedProxies は X-Forwarded-For / X-Forwarded-Proto を信頼するプロキシのIPまたはCIDR。
	// 空の場合は転送ヘッダーを信頼せず、接続元アドレスだけを使う。
	TrustedProxies []string
}

// Load は .env ファイル（存在すれば）と環境変数から設定を読み込む。
// 既に設定されている環境変数は .env の値で上書きされない。
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%s の読み込みに失敗: %w", f, err)
		}
	}
	return FromEnv(os.Getenv), nil
}

// FromEnv は getenv で取得した値から設定を組み立てる。不正な値は既定値に置き換える。
func FromEnv(getenv func(string) string) Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:       get("PORT", "8080"),
		AppName:    get("APP_NAME", "Crypto Market"),
		AppVersion: get("APP_VERSION", "1.0.0"),
		Env:        get("APP_ENV", "production"),
		LogLevel:   get("LOG_LEVEL", "info"),

		CryptoAPIBaseURL:     normalizeBaseURL(get("CRYPTO_API_BASE_URL", "https://api.coingecko.com/api/v3/")),
		CryptoAPIHealthPath:  get("CRYPTO_API_HEALTH_PATH", "ping"),
		FetchTimeout:         parseDuration(get("FETCH_TIMEOUT", ""), 10*time.Second),
		HealthCheckTimeout:   parseDuration(get("HEALTH_CHECK_TIMEOUT", ""), 5*time.Second),
		DefaultPageSize:      parsePositiveInt(get("DEFAULT_PAGE_SIZE", ""), 10),
		StrictUpstreamErrors: parseBool(get("STRICT_UPSTREAM_ERRORS", ""), false),

		DatabasePath: get("DATABASE_PATH", "/data/cryptomarket.db"),
		JWTSecret:    get("JWT_SECRET", "dev-secret-key"),
		TokenTTL:     parseDuration(get("TOKEN_TTL", ""), 30*24*time.Hour),

		CORSAllowOrigins:   splitCSV(get("FRONTEND_URL", "http://localhost:3000")),
		RateLimitPerMinute: parseNonNegativeInt(get("RATE_LIMIT_PER_MINUTE", ""), 0),
		TrustedProxies:     splitCSV(get("TRUSTED_PROXIES", "")),
	}
	// ヘルスチェックはデータ取得より先に打ち切る
	if cfg.HealthCheckTimeout >= cfg.FetchTimeout {
		cfg.HealthCheckTimeout = cfg.FetchTimeout / 2
	}
	return cfg
}

// IsDevelopment は開発環境かどうかを返す。
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// normalizeBaseURL はパスをそのまま連結できるよう末尾に "/" を補う。
func normalizeBaseURL(u string) string {
	if !strings.HasSuffix(u, "/") {
		return u + "/"
	}
	return u
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parsePositiveInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseNonNegativeInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func parseBool(v string, def bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
