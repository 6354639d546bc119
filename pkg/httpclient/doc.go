// Package httpclient は外部の暗号資産マーケットデータAPI（アップストリーム）への
// GETリクエストを行うクライアントを提供する。
//
// 設定されたベースURLとパスを連結してリクエストURLを組み立て、
// 通信エラー・非2xxレスポンス・不正なボディをそれぞれ FetchError の種別に正規化する。
// リトライ、サーキットブレーカー、キャッシュは持たない。1回の呼び出しは1回の往復である。
package httpclient
