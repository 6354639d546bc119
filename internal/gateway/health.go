package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/cryptomarket/pkg/health"
)

// healthCheckResponse はヘルスチェックのレスポンス。
type healthCheckResponse struct {
	AppName   string                  `json:"app_name"`
	Version   string                  `json:"version"`
	Status    health.Status           `json:"status"`
	Timestamp string                  `json:"timestamp"`
	Services  map[string]health.Probe `json:"services"`
}

// handleHealthCheck は依存サービスを確認し、アプリケーション全体の状態を返すハンドラを返す。
// 1件でも異常があれば503を返す。
func (s *Server) handleHealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		report := s.health.Check(c.Request.Context(), s.dependencies)

		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, healthCheckResponse{
			AppName:   s.cfg.AppName,
			Version:   s.cfg.AppVersion,
			Status:    report.Status,
			Timestamp: report.Timestamp.Format(time.RFC3339),
			Services:  report.Probes,
		})
	}
}
