package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/internal/service"
	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

// MonitorHandler 手动触发考勤巡检
// 巡检本身不返回错误，失败的公司在结果中计为零
type MonitorHandler struct {
	monitorSvc service.MonitorService
}

// NewMonitorHandler 创建 MonitorHandler
func NewMonitorHandler(monitorSvc service.MonitorService) *MonitorHandler {
	return &MonitorHandler{monitorSvc: monitorSvc}
}

// ProcessCompany 立即巡检单个公司
// POST /api/v1/monitor/companies/:id/process
func (h *MonitorHandler) ProcessCompany(c *gin.Context) {
	companyID := c.Param("id")
	if !canAccessCompany(c, companyID) {
		response.Forbidden(c, 10003, "无权访问该公司")
		return
	}

	result := h.monitorSvc.ProcessCompany(c.Request.Context(), companyID)
	response.OK(c, result)
}

// RunGlobalSweep 立即巡检全部公司，仅跨公司管理员可用
// POST /api/v1/monitor/sweep
func (h *MonitorHandler) RunGlobalSweep(c *gin.Context) {
	if !canAccessCompany(c, "") {
		response.Forbidden(c, 10003, "无权执行全局巡检")
		return
	}

	result := h.monitorSvc.RunGlobalSweep(c.Request.Context())
	response.OK(c, result)
}
