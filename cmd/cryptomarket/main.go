// 暗号資産マーケットデータゲートウェイのエントリポイント。
// 設定を読み込み、ロガーとサーバーを組み立てて起動する。SIGINT/SIGTERMでグレースフルに停止する。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nao1215/cryptomarket/internal/config"
	"github.com/nao1215/cryptomarket/internal/gateway"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := gateway.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Gatewayサーバーの初期化に失敗", zap.Error(err))
	}
	defer server.Close()

	if err := server.Run(ctx); err != nil {
		logger.Error("Gatewayサービスの実行に失敗", zap.Error(err))
		return
	}
	logger.Info("Gatewayサービスを停止しました")
}

// newLogger は実行環境とログレベルに応じたロガーを生成する。
func newLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("app", cfg.AppName), zap.String("version", cfg.AppVersion)), nil
}
