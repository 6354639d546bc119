// Package gateway は暗号資産マーケットデータAPIの読み取り専用ゲートウェイを提供する。
//
// コイン一覧、カテゴリ一覧、マーケットデータの各エンドポイントはアップストリームAPIを1回だけ呼び出し、
// 結果を共通のページ付きエンベロープに詰めて返す。ヘルスチェックは依存サービスを並行に確認し、
// 1件でも異常があれば503を返す。ユーザー登録、ログイン、ログアウトは account パッケージに委譲する。
package gateway
