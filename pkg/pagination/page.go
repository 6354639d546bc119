package pagination

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// DefaultPageSize はページサイズが指定されなかった場合の既定値。
const DefaultPageSize = 10

// LastPage は最終ページを指すページ番号。クエリの "page=last" に対応する。
const LastPage = -1

// ErrInvalidPage は存在しないページ番号が指定されたことを表す。
// メッセージはAPIレスポンスにそのまま使われる。
var ErrInvalidPage = errors.New("Invalid page.")

// Page はページ分割された要素列。
type Page struct {
	// Items はこのページに含まれる要素。アップストリームの値をそのまま保持する。
	Items []json.RawMessage
	// TotalCount は全要素数。
	TotalCount int
	// PageSize は1ページあたりの要素数。1以上。
	PageSize int
	// CurrentPage は現在のページ番号。1始まり。
	CurrentPage int
	// HasNext は後続ページが存在するかどうか。
	HasNext bool
	// HasPrevious は前のページが存在するかどうか。
	HasPrevious bool
}

// PageCount は TotalCount / PageSize を切り捨てで返す。
// 101件をサイズ10で分割した場合は11ではなく10になる。
func (p Page) PageCount() int {
	if p.PageSize <= 0 {
		return 0
	}
	return p.TotalCount / p.PageSize
}

// Builder は要素列からページを組み立てる。状態を持たず、並行に使用できる。
type Builder struct {
	// defaultPageSize はページサイズ未指定時に使う値。
	defaultPageSize int
}

// NewBuilder は新しいBuilderを生成する。0以下の既定値は DefaultPageSize に置き換える。
func NewBuilder(defaultPageSize int) *Builder {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	return &Builder{defaultPageSize: defaultPageSize}
}

// PageSize は要求されたページサイズを検証し、0以下なら既定値を返す。
func (b *Builder) PageSize(requested int) int {
	if requested <= 0 {
		return b.defaultPageSize
	}
	return requested
}

// Paginate は全要素列から指定ページを切り出す。
// 要素が0件の場合でも1ページ目は有効。範囲外のページ番号は ErrInvalidPage を返す。
func (b *Builder) Paginate(items []json.RawMessage, requestedPageSize, pageNumber int) (Page, error) {
	size := b.PageSize(requestedPageSize)
	total := len(items)

	numPages := (total + size - 1) / size
	if numPages == 0 {
		numPages = 1
	}
	if pageNumber == LastPage {
		pageNumber = numPages
	}
	if pageNumber < 1 || pageNumber > numPages {
		return Page{}, ErrInvalidPage
	}

	start := (pageNumber - 1) * size
	end := min(start+size, total)

	pageItems := make([]json.RawMessage, 0, end-start)
	pageItems = append(pageItems, items[start:end]...)

	return Page{
		Items:       pageItems,
		TotalCount:  total,
		PageSize:    size,
		CurrentPage: pageNumber,
		HasNext:     pageNumber < numPages,
		HasPrevious: pageNumber > 1,
	}, nil
}

// Reshape はアップストリーム側で既にページ分割された要素列をそのまま1ページとして扱う。
// 全件数は分からないため TotalCount は受け取った件数になる。
// 後続ページは、受け取った件数がページサイズに達している場合に存在するとみなす。
func (b *Builder) Reshape(items []json.RawMessage, requestedPageSize, pageNumber int) Page {
	size := b.PageSize(requestedPageSize)
	if pageNumber < 1 {
		pageNumber = 1
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return Page{
		Items:       items,
		TotalCount:  len(items),
		PageSize:    size,
		CurrentPage: pageNumber,
		HasNext:     len(items) > 0 && len(items) >= size,
		HasPrevious: pageNumber > 1,
	}
}

// ParsePageSize はクエリの per_page を解釈する。解釈できない値は0を返し、既定値の適用を呼び出し側に委ねる。
func ParsePageSize(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

// ParsePageNumber はクエリの page を解釈する。空の場合は1ページ目、"last" は LastPage を返す。
func ParsePageNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return 1, nil
	case "last":
		return LastPage, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrInvalidPage
	}
	return n, nil
}
