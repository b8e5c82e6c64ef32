package handler

import (
	"context"
	"log"
	"os"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"auto-apply-go/internal/audit"
	"auto-apply-go/internal/policy"
	"auto-apply-go/internal/types"
)

// PolicyHandler 投递策略与审计链相关接口
type PolicyHandler struct {
	engine *policy.Engine
	trail  *audit.Trail
	logger *log.Logger
}

// NewPolicyHandler 创建策略处理器
func NewPolicyHandler(engine *policy.Engine, trail *audit.Trail) *PolicyHandler {
	return &PolicyHandler{
		engine: engine,
		trail:  trail,
		logger: log.New(os.Stdout, "[PolicyHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// HandleGetPolicy 返回当前策略
// GET /api/v1/policy
func (h *PolicyHandler) HandleGetPolicy(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, h.engine.Get())
}

// HandleSetPolicy 部分更新策略,未提供的字段保持原值
// POST /api/v1/policy/set
func (h *PolicyHandler) HandleSetPolicy(ctx context.Context, c *app.RequestContext) {
	var update types.PolicyUpdate
	if err := c.BindJSON(&update); err != nil {
		writeBadRequest(c, "请求体解析失败: "+err.Error())
		return
	}

	updated, err := h.engine.Set(update)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logger.Printf("策略已更新")
	c.JSON(consts.StatusOK, updated)
}

// HandleCheckPolicy 对指定职位跑一次策略检查
// GET /api/v1/policy/check?job_id=xxx
func (h *PolicyHandler) HandleCheckPolicy(ctx context.Context, c *app.RequestContext) {
	jobID := c.Query("job_id")
	if jobID == "" {
		writeBadRequest(c, "需要 job_id")
		return
	}
	c.JSON(consts.StatusOK, h.engine.Check(jobID))
}

// HandlePauseAll 紧急暂停全部自动投递
// POST /api/v1/policy/pause-all
func (h *PolicyHandler) HandlePauseAll(ctx context.Context, c *app.RequestContext) {
	if !h.engine.PauseAll() {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "暂停策略写入失败"})
		return
	}
	h.logger.Printf("全局策略已暂停")
	c.JSON(consts.StatusOK, utils.H{"status": "paused"})
}

// HandleGetAuditTrail 返回某职位的完整审计链,未知职位返回空列表
// GET /api/v1/audit/:job_id
func (h *PolicyHandler) HandleGetAuditTrail(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	events, err := h.trail.GetTrail(jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"job_id": jobID, "total": len(events), "events": events})
}
