// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// トークン認証とBasic認証、JWTの発行と検証、パニックリカバリ、
// CORS設定、クライアントIPごとのレート制限を含む。
package middleware
