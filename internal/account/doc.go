// Package account はユーザー登録、ログイン、ログアウトとトークン認証を提供する。
//
// ユーザーと認証トークンはSQLiteに保存する。トークンは署名付きJWTであり、
// 署名と有効期限に加えて、保存済みで失効していないことを確認して初めて有効とみなす。
// ログインはユーザーごとに1つのトークンを取得または作成し、ログアウトはそのトークンを失効させる。
package account
