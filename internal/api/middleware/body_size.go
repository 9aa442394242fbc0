package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"food-co2-estimator/internal/pkg/common"
)

// BodySizeLimit 限制食譜文字請求體大小
//
// 帶 Content-Length 的請求直接以 413 拒絕；未帶者包上 MaxBytesReader，
// 由 handler 綁定失敗時以 common.IsPayloadTooLarge 判斷。
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxSize <= 0 || !hasBody(c.Request) {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxSize {
			common.LogWarn("食譜內容過大",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("request_id", common.RequestIDFrom(c.Request.Context())),
				zap.String("path", c.Request.URL.Path),
			)
			status, resp := common.ToResponse(common.ErrPayloadTooLarge, false)
			c.AbortWithStatusJSON(status, resp)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return r.Body != nil && r.Body != http.NoBody
}
