// Package pagination はアップストリームから取得した要素列をページに切り分け、
// 全データエンドポイント共通のレスポンスエンベロープに整形する。
//
// page_count は count を page_size で切り捨て除算した値であり、
// 端数がある場合は実際のページ数より1少なくなる。既存クライアントとの互換のため、この計算を維持する。
package pagination
