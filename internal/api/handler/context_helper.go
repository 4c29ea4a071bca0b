package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetCompanyID 解析本次请求作用的公司。
// Token 绑定了公司时只能操作该公司；未绑定（跨公司管理员）时必须通过 ?company_id= 指定。
func MustGetCompanyID(c *gin.Context) (string, bool) {
	v, exists := c.Get("company_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}

	query := c.Query("company_id")
	switch {
	case s == "" && query == "":
		response.BadRequest(c, 10001, "缺少 company_id")
		return "", false
	case s == "":
		return query, true
	case query != "" && query != s:
		response.Forbidden(c, 10003, "无权访问该公司")
		return "", false
	}
	return s, true
}

// canAccessCompany 调用方 Token 是否覆盖指定公司
func canAccessCompany(c *gin.Context, companyID string) bool {
	v, _ := c.Get("company_id")
	s, _ := v.(string)
	return s == "" || s == companyID
}
