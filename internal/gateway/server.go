package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nao1215/cryptomarket/internal/account"
	"github.com/nao1215/cryptomarket/internal/config"
	"github.com/nao1215/cryptomarket/pkg/health"
	"github.com/nao1215/cryptomarket/pkg/httpclient"
	"github.com/nao1215/cryptomarket/pkg/middleware"
	"github.com/nao1215/cryptomarket/pkg/pagination"
)

// cryptoAPIName は依存サービスとしてのアップストリームAPIの名前。
const cryptoAPIName = "crypto_api"

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

// Server はゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg はアプリケーション設定。
	cfg config.Config
	// db はSQLiteデータベース接続。
	db *sql.DB
	// logger は構造化ロガー。
	logger *zap.Logger
	// upstream はアップストリームAPIクライアント。
	upstream *httpclient.Client
	// pages はページ付きレスポンスの組み立て役。
	pages *pagination.Builder
	// health は依存サービスの確認役。
	health *health.Aggregator
	// dependencies はヘルスチェック対象。
	dependencies []health.Dependency
	// metrics はPrometheusメトリクス。
	metrics *metricsCollector
	// limiter はクライアントIPごとのレート制限。無効の場合はnil。
	limiter *middleware.RateLimiter
	// trustedProxies は転送ヘッダーを信頼する接続元の範囲。
	trustedProxies []netip.Prefix
}

// NewServer は新しいGatewayサーバーを生成する。
// データベースを開いてスキーマを適用し、ルーティングを設定する。
func NewServer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("sqlite", cfg.DatabasePath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if err := account.Migrate(ctx, sqlDB, logger); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	trusted, err := parseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	metrics := newMetricsCollector()
	s := &Server{
		router: gin.New(),
		cfg:    cfg,
		db:     sqlDB,
		logger: logger,
		upstream: httpclient.New(cfg.CryptoAPIBaseURL,
			httpclient.WithTimeout(cfg.FetchTimeout),
			httpclient.WithName(cryptoAPIName),
			httpclient.WithLogger(logger),
			httpclient.WithObserver(metrics),
		),
		pages: pagination.NewBuilder(cfg.DefaultPageSize),
		health: health.NewAggregator(
			health.WithTimeout(cfg.HealthCheckTimeout),
			health.WithLogger(logger),
			health.WithRecorder(metrics),
		),
		dependencies: []health.Dependency{
			{Name: cryptoAPIName, BaseURL: cfg.CryptoAPIBaseURL, Path: cfg.CryptoAPIHealthPath},
		},
		metrics:        metrics,
		trustedProxies: trusted,
	}
	// 未設定(nil)の場合、ClientIP は接続元アドレスだけを返す
	if err := s.router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("信頼するプロキシの設定に失敗: %w", err)
	}
	if cfg.RateLimitPerMinute > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, metrics.incRateLimitRejections)
	}
	s.setupRoutes()

	logger.Info("アップストリームAPIを設定",
		zap.String("base_url", s.upstream.BaseURL()),
		zap.Duration("fetch_timeout", s.upstream.Timeout()),
		zap.Duration("health_check_timeout", cfg.HealthCheckTimeout),
	)
	return s, nil
}

// parseTrustedProxies はIPまたはCIDRの一覧を範囲に変換する。
func parseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		if p, err := netip.ParsePrefix(e); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("信頼するプロキシの指定が不正: %q", e)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// fromTrustedProxy はリクエストの接続元が信頼するプロキシかどうかを返す。
func (s *Server) fromTrustedProxy(c *gin.Context) bool {
	addr, err := netip.ParseAddr(c.RemoteIP())
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Handler はHTTPハンドラとしてのルーターを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("サーバーを起動", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("サーバーの起動に失敗: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("サーバーを停止")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("シャットダウンに失敗: %w", err)
	}
	return nil
}

// Close はサーバーが保持する資源を解放する。
func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.Close()
	}
	return s.db.Close()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	s.router.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.CORS(s.cfg.CORSAllowOrigins))
	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware())
	}

	store := account.NewSQLiteStore(s.db, account.TokenConfig{Secret: s.cfg.JWTSecret, TTL: s.cfg.TokenTTL})
	accounts := account.NewHandler(store, store, s.logger)

	v1 := s.router.Group("/v1")
	// 認証必須のエンドポイント
	authed := v1.Group("")
	authed.Use(middleware.Auth(account.NewAuthenticator(store, store)))
	{
		authed.GET("/coin-list", s.handleCoinList())
		authed.GET("/coin-categories", s.handleCoinCategories())
		authed.GET("/coin-market", s.handleCoinMarket())
		authed.GET("/health-check", s.handleHealthCheck())
	}
	accounts.RegisterRoutes(v1, authed)

	// メトリクスと死活確認（認証不要）
	s.router.GET("/metrics", gin.WrapH(s.metrics.handler()))
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "cryptomarket"})
	})
}
