package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/pkg/jwt"
	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

// 认证信息在 gin.Context 中的键
const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxCompanyID = "company_id"
)

// JWTAuth 校验 Authorization: Bearer <token>，并把调用方身份注入上下文
// company_id 始终写入（跨公司 Token 为空串），下游据此做公司隔离
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, 10002, "缺少或无效的认证头")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(raw)
		if err != nil {
			msg := "Token 无效"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token 已过期"
			}
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}
		if claims.UserID == "" || claims.Role == "" {
			response.Unauthorized(c, 10002, "Token 缺少身份信息")
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxCompanyID, claims.CompanyID)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RoleAuth 要求调用方角色属于 allowedRoles 之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}
		c.Next()
	}
}
