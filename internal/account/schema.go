package account

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"go.uber.org/zap"

	"github.com/nao1215/cryptomarket/pkg/migration"
)

// migrationFS はアカウント関連テーブルのマイグレーション。
//
//go:embed migrations/*.up.sql
var migrationFS embed.FS

// Migrate はSQLiteデータベースにアカウント関連のスキーマを適用する。
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if _, err := migration.Run(ctx, db, migrationFS, "migrations", logger); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
