package pagination

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// pageQueryParam はページ番号を表すクエリパラメータ名。
const pageQueryParam = "page"

// Envelope はデータエンドポイント共通のレスポンス形式。
// キー構成はエンドポイントによらず固定である。
type Envelope struct {
	// Count は全要素数。
	Count int `json:"count"`
	// Next は次ページのURL。存在しない場合はnull。
	Next *string `json:"next"`
	// Previous は前ページのURL。存在しない場合はnull。
	Previous *string `json:"previous"`
	// PageCount は Count / page_size の切り捨て値。
	PageCount int `json:"page_count"`
	// Status は成功時true。
	Status bool `json:"status"`
	// StatusCode はHTTPステータスコード。
	StatusCode int `json:"status_code"`
	// Message は結果メッセージ。
	Message string `json:"message"`
	// Data はページ内の要素。
	Data []json.RawMessage `json:"data"`
}

// NewEnvelope はページとリクエストURLからエンベロープを組み立てる。
// requestURLはスキームとホストを含む絶対URLであること。
func NewEnvelope(p Page, requestURL *url.URL) Envelope {
	data := p.Items
	if data == nil {
		data = []json.RawMessage{}
	}

	env := Envelope{
		Count:      p.TotalCount,
		PageCount:  p.PageCount(),
		Status:     true,
		StatusCode: http.StatusOK,
		Message:    "Success",
		Data:       data,
	}
	if p.HasNext {
		next := pageLink(requestURL, p.CurrentPage+1)
		env.Next = &next
	}
	if p.HasPrevious {
		prev := pageLink(requestURL, p.CurrentPage-1)
		env.Previous = &prev
	}
	return env
}

// pageLink はリクエストURLのページ番号だけを差し替えたURLを返す。
// 1ページ目へのリンクではページ番号を取り除く。
func pageLink(requestURL *url.URL, page int) string {
	u := *requestURL
	q := u.Query()
	if page <= 1 {
		q.Del(pageQueryParam)
	} else {
		q.Set(pageQueryParam, strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
