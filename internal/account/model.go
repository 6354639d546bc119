package account

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound はユーザーが存在しないことを表す。
	ErrUserNotFound = errors.New("ユーザーが見つかりません")
	// ErrEmailTaken はメールアドレスが既に登録されていることを表す。
	ErrEmailTaken = errors.New("メールアドレスは既に登録されています")
	// ErrInvalidCredentials はメールアドレスまたはパスワードが誤っていることを表す。
	ErrInvalidCredentials = errors.New("認証情報が正しくありません")
	// ErrInvalidToken はトークンが無効（署名不正、期限切れ、失効済み）であることを表す。
	ErrInvalidToken = errors.New("トークンが無効です")
	// ErrTokenNotFound は失効させるトークンが存在しないことを表す。
	ErrTokenNotFound = errors.New("トークンが見つかりません")
)

// User は登録済みユーザー。
type User struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Email はログインIDとして使うメールアドレス。
	Email string `json:"email"`
	// FirstName は名。
	FirstName string `json:"first_name"`
	// LastName は姓。
	LastName string `json:"last_name"`
	// PasswordHash はbcryptハッシュ。レスポンスには含めない。
	PasswordHash string `json:"-"`
	// CreatedAt は登録日時。
	CreatedAt time.Time `json:"-"`
	// LastLoginAt は最終ログイン日時。未ログインの場合はnil。
	LastLoginAt *time.Time `json:"-"`
}

// NewUser はユーザー登録の入力。
type NewUser struct {
	// Email はメールアドレス。
	Email string
	// FirstName は名。
	FirstName string
	// LastName は姓。
	LastName string
	// Password は平文のパスワード。保存時にハッシュ化される。
	Password string
}
