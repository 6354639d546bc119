package account

import (
	"context"

	"github.com/nao1215/cryptomarket/pkg/middleware"
)

// Authenticator は保存済みトークンとパスワードでリクエストを認証する。
// middleware.Auth に渡して使う。
type Authenticator struct {
	users  UserStore
	tokens TokenStore
}

var _ middleware.Authenticator = (*Authenticator)(nil)

// NewAuthenticator は新しいAuthenticatorを生成する。
func NewAuthenticator(users UserStore, tokens TokenStore) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

// AuthenticateToken はトークンを検証する。
func (a *Authenticator) AuthenticateToken(ctx context.Context, token string) (middleware.Principal, error) {
	u, err := a.tokens.Verify(ctx, token)
	if err != nil {
		return middleware.Principal{}, err
	}
	return middleware.Principal{UserID: u.ID, Email: u.Email}, nil
}

// AuthenticateBasic はメールアドレスとパスワードを検証する。
func (a *Authenticator) AuthenticateBasic(ctx context.Context, email, password string) (middleware.Principal, error) {
	u, err := a.users.VerifyPassword(ctx, email, password)
	if err != nil {
		return middleware.Principal{}, err
	}
	return middleware.Principal{UserID: u.ID, Email: u.Email}, nil
}
