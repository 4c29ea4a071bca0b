package dto

// ── 巡检模块 DTO ──

// ProcessResult 单个公司一次巡检的结果
type ProcessResult struct {
	ViolationsFound   int `json:"violations_found"`
	ExceptionsCreated int `json:"exceptions_created"`
}

// SweepResult 全局巡检汇总
type SweepResult struct {
	Companies         int `json:"companies"`
	ViolationsFound   int `json:"violations_found"`
	ExceptionsCreated int `json:"exceptions_created"`
}
