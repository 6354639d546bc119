package gateway

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/cryptomarket/pkg/httpclient"
	"github.com/nao1215/cryptomarket/pkg/pagination"
)

// アップストリームAPIのパス。
const (
	pathCoinList       = "coins/list"
	pathCoinCategories = "coins/categories/list"
	pathCoinMarkets    = "coins/markets"
)

// defaultVsCurrency はマーケットデータの既定の表示通貨。
const defaultVsCurrency = "cad"

// handleCoinList はコイン一覧を返すハンドラを返す。
func (s *Server) handleCoinList() gin.HandlerFunc {
	return s.handleFullList(pathCoinList)
}

// handleCoinCategories はコインカテゴリ一覧を返すハンドラを返す。
func (s *Server) handleCoinCategories() gin.HandlerFunc {
	return s.handleFullList(pathCoinCategories)
}

// handleFullList は全件を返すアップストリームのパスを取得し、ゲートウェイ側でページ分割するハンドラを返す。
func (s *Server) handleFullList(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		pageNumber, err := pagination.ParsePageNumber(c.Query("page"))
		if err != nil {
			s.writeError(c, err)
			return
		}

		items, err := s.upstream.Fetch(c.Request.Context(), path, nil)
		if err != nil {
			s.writeError(c, err)
			return
		}

		page, err := s.pages.Paginate(items, pagination.ParsePageSize(c.Query("per_page")), pageNumber)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, pagination.NewEnvelope(page, s.requestURL(c)))
	}
}

// handleCoinMarket はマーケットデータを返すハンドラを返す。
// ページ分割はアップストリームに委ね、返された1ページ分をエンベロープに詰め直す。
func (s *Server) handleCoinMarket() gin.HandlerFunc {
	return func(c *gin.Context) {
		pageNumber, err := pagination.ParsePageNumber(c.Query("page"))
		if err != nil || pageNumber == pagination.LastPage {
			// アップストリーム側の総ページ数は分からないため "last" は扱えない
			s.writeError(c, pagination.ErrInvalidPage)
			return
		}
		pageSize := s.pages.PageSize(pagination.ParsePageSize(c.Query("per_page")))

		items, err := s.upstream.Fetch(c.Request.Context(), pathCoinMarkets, httpclient.Params{
			"vs_currency": c.DefaultQuery("vs_currency", defaultVsCurrency),
			"ids":         c.Query("ids"),
			"category":    c.Query("category"),
			"per_page":    pageSize,
			"page":        pageNumber,
		})
		if err != nil {
			s.writeError(c, err)
			return
		}

		page := s.pages.Reshape(items, pageSize, pageNumber)
		c.JSON(http.StatusOK, pagination.NewEnvelope(page, s.requestURL(c)))
	}
}

// requestURL はページリンクの基準となる受信リクエストの絶対URLを返す。
// スキームはTLSの有無で決め、信頼するプロキシ経由の場合に限り X-Forwarded-Proto を採用する。
func (s *Server) requestURL(c *gin.Context) *url.URL {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if s.fromTrustedProxy(c) {
		if proto := forwardedProto(c.GetHeader("X-Forwarded-Proto")); proto != "" {
			scheme = proto
		}
	}
	return &url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: c.Request.URL.RawQuery,
	}
}

// forwardedProto は X-Forwarded-Proto の先頭の値を返す。http と https 以外は空文字列。
func forwardedProto(header string) string {
	proto, _, _ := strings.Cut(header, ",")
	switch proto = strings.ToLower(strings.TrimSpace(proto)); proto {
	case "http", "https":
		return proto
	}
	return ""
}
