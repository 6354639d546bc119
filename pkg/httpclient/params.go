package httpclient

import (
	"fmt"
	"net/url"
)

// Params はアップストリームに送るクエリパラメータ。
// 値がnil、nilポインタ、空文字列のキーは送信しない。
type Params map[string]any

// Encode はクエリ文字列に変換する。キーはソートされる。
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range p {
		s, ok := paramString(v)
		if !ok {
			continue
		}
		values.Set(k, s)
	}
	return values.Encode()
}

// paramString は値を文字列化する。送信すべきでない値の場合はfalseを返す。
func paramString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case *string:
		if x == nil {
			return "", false
		}
		return *x, *x != ""
	case *int:
		if x == nil {
			return "", false
		}
		return fmt.Sprint(*x), true
	default:
		return fmt.Sprint(x), true
	}
}
