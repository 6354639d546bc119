package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/cryptomarket/pkg/middleware"
)

// UserStore はユーザーの永続化と照合を行う。
type UserStore interface {
	// FindByEmail はメールアドレスでユーザーを検索する。存在しない場合は ErrUserNotFound を返す。
	FindByEmail(ctx context.Context, email string) (User, error)
	// Create はユーザーを登録する。メールアドレスが重複する場合は ErrEmailTaken を返す。
	Create(ctx context.Context, u NewUser) (User, error)
	// VerifyPassword はメールアドレスとパスワードを照合する。一致しない場合は ErrInvalidCredentials を返す。
	VerifyPassword(ctx context.Context, email, password string) (User, error)
	// UpdateLastLogin は最終ログイン日時を更新する。
	UpdateLastLogin(ctx context.Context, userID string) error
}

// TokenStore は認証トークンの発行、検証、失効を行う。
type TokenStore interface {
	// Issue はユーザーの有効なトークンを返す。無ければ新たに発行する。
	Issue(ctx context.Context, u User) (string, error)
	// Verify はトークンを検証し、所有者を返す。無効な場合は ErrInvalidToken を返す。
	Verify(ctx context.Context, token string) (User, error)
	// Revoke はユーザーのトークンを失効させる。トークンが無い場合は ErrTokenNotFound を返す。
	Revoke(ctx context.Context, userID string) error
}

// TokenConfig はトークン発行の設定。
type TokenConfig struct {
	// Secret はJWT署名用の秘密鍵。
	Secret string
	// TTL はトークンの有効期間。
	TTL time.Duration
}

// SQLiteStore は UserStore と TokenStore のSQLite実装。
type SQLiteStore struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// tokens はトークン発行の設定。
	tokens TokenConfig
	// bcryptCost はパスワードハッシュのコスト。
	bcryptCost int
	// now は現在時刻を返す。
	now func() time.Time
}

var (
	_ UserStore  = (*SQLiteStore)(nil)
	_ TokenStore = (*SQLiteStore)(nil)
)

// NewSQLiteStore は新しいSQLiteStoreを生成する。スキーマは事前に Migrate で適用しておくこと。
func NewSQLiteStore(db *sql.DB, tokens TokenConfig) *SQLiteStore {
	return &SQLiteStore{
		db:         db,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

const userColumns = `id, email, first_name, last_name, password_hash, created_at, last_login_at`

// scanner は *sql.Row と *sql.Rows の共通インターフェース。
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (User, error) {
	var (
		u         User
		lastLogin sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt, &lastLogin); err != nil {
		return User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。
func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return u, nil
}

// Create はパスワードをハッシュ化してユーザーを登録する。
func (s *SQLiteStore) Create(ctx context.Context, nu NewUser) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), s.bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(nu.Email),
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("ユーザーの登録に失敗: %w", err)
	}
	return u, nil
}

// VerifyPassword はメールアドレスとパスワードを照合する。
// ユーザーが存在しない場合も ErrInvalidCredentials を返し、どちらが誤りかを区別しない。
func (s *SQLiteStore) VerifyPassword(ctx context.Context, email, password string) (User, error) {
	u, err := s.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// UpdateLastLogin は最終ログイン日時を現在時刻に更新する。
func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, s.now().UTC(), userID); err != nil {
		return fmt.Errorf("最終ログイン日時の更新に失敗: %w", err)
	}
	return nil
}

// Issue はユーザーの有効なトークンを取得し、無ければ発行する。
// 期限切れのトークンは新しいトークンに置き換える。
func (s *SQLiteStore) Issue(ctx context.Context, u User) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := s.now().UTC()
	if _, err := tx.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = ? AND expires_at <= ?`, u.ID, now); err != nil {
		return "", fmt.Errorf("期限切れトークンの削除に失敗: %w", err)
	}

	var token string
	err = tx.QueryRowContext(ctx, `SELECT token FROM auth_tokens WHERE user_id = ?`, u.ID).Scan(&token)
	switch {
	case err == nil:
		return token, tx.Commit()
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("トークンの取得に失敗: %w", err)
	}

	token, err = middleware.GenerateJWT(s.tokens.Secret, u.ID, u.Email, s.tokens.TTL)
	if err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO auth_tokens (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, u.ID, now, now.Add(s.tokens.TTL),
	); err != nil {
		return "", fmt.Errorf("トークンの保存に失敗: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}
	return token, nil
}

// Verify はトークンの署名と有効期限を検証し、保存済みであれば所有者を返す。
func (s *SQLiteStore) Verify(ctx context.Context, token string) (User, error) {
	claims, err := middleware.ParseJWT(s.tokens.Secret, token)
	if err != nil {
		return User{}, ErrInvalidToken
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.first_name, u.last_name, u.password_hash, u.created_at, u.last_login_at
		 FROM auth_tokens t JOIN users u ON u.id = t.user_id
		 WHERE t.token = ? AND t.user_id = ?`,
		token, claims.UserID,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidToken
	}
	if err != nil {
		return User{}, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	return u, nil
}

// Revoke はユーザーのトークンを削除する。
func (s *SQLiteStore) Revoke(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("トークンの削除に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return ErrTokenNotFound
	}
	return nil
}
