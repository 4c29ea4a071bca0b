package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

// BodyLimit 限制请求体大小
// 声明了 Content-Length 的超限请求直接拒绝；未声明的由 MaxBytesReader 在读取时截断
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.PayloadTooLarge(c)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
