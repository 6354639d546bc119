package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/cryptomarket/pkg/httpclient"
	"github.com/nao1215/cryptomarket/pkg/pagination"
)

// writeError はデータエンドポイントの失敗を {"error": "<message>"} で返す。
//
// 既定では既存クライアントとの互換のためステータス200で返す。
// StrictUpstreamErrors が有効な場合は失敗の種類に応じたステータスで返す。
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusOK
	if s.cfg.StrictUpstreamErrors {
		status = strictStatus(err)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Warn("データエンドポイントの処理に失敗",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// strictStatus はエラーに対応するHTTPステータスを返す。
func strictStatus(err error) int {
	if errors.Is(err, pagination.ErrInvalidPage) {
		return http.StatusNotFound
	}
	var fe *httpclient.FetchError
	if errors.As(err, &fe) {
		if fe.Kind == httpclient.KindUnreachable && fe.Timeout() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
