package handler

import (
	"context"
	"log"
	"os"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"auto-apply-go/internal/assembler"
	"auto-apply-go/internal/orchestrator"
	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/submitter"
	"auto-apply-go/internal/types"
)

// ApplyHandler 投递流水线相关接口:打包、投递、批处理、队列管理
type ApplyHandler struct {
	storage      *storage.Storage
	assembler    *assembler.Assembler
	submitter    *submitter.Client
	orchestrator *orchestrator.Orchestrator
	logger       *log.Logger
}

// NewApplyHandler 创建投递处理器
func NewApplyHandler(
	store *storage.Storage,
	asm *assembler.Assembler,
	sub *submitter.Client,
	orch *orchestrator.Orchestrator,
) *ApplyHandler {
	return &ApplyHandler{
		storage:      store,
		assembler:    asm,
		submitter:    sub,
		orchestrator: orch,
		logger:       log.New(os.Stdout, "[ApplyHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// JobIDRequest 只带职位 ID 的请求体
type JobIDRequest struct {
	JobID string `json:"job_id"`
}

// HandleAssemble 为指定职位组装申请包
// POST /api/v1/apply/assemble
func (h *ApplyHandler) HandleAssemble(ctx context.Context, c *app.RequestContext) {
	var req JobIDRequest
	if err := c.BindJSON(&req); err != nil || req.JobID == "" {
		writeBadRequest(c, "需要 job_id")
		return
	}

	pkg, err := h.assembler.Assemble(ctx, req.JobID, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, pkg)
}

// HandleSubmit 投出指定职位最近一份已组装的申请包
// POST /api/v1/apply/submit
func (h *ApplyHandler) HandleSubmit(ctx context.Context, c *app.RequestContext) {
	var req JobIDRequest
	if err := c.BindJSON(&req); err != nil || req.JobID == "" {
		writeBadRequest(c, "需要 job_id")
		return
	}

	result, err := h.submitter.Submit(ctx, req.JobID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, result)
}

// HandleBatchStart 启动后台批处理
// POST /api/v1/apply/batch/start
func (h *ApplyHandler) HandleBatchStart(ctx context.Context, c *app.RequestContext) {
	if err := h.orchestrator.Start(context.Background()); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	c.JSON(consts.StatusOK, utils.H{"status": "started", "message": "Batch processing started in background"})
}

// HandleBatchStop 请求停止当前批处理
// POST /api/v1/apply/batch/stop
func (h *ApplyHandler) HandleBatchStop(ctx context.Context, c *app.RequestContext) {
	if err := h.orchestrator.Stop(); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	c.JSON(consts.StatusOK, utils.H{"status": "stopping", "message": "Batch processing stopping..."})
}

// HandleBatchStatus 返回批处理状态快照
// GET /api/v1/apply/batch/status
func (h *ApplyHandler) HandleBatchStatus(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, h.orchestrator.Status())
}

// QueueAddRequest 入队请求
type QueueAddRequest struct {
	Jobs []types.QueueEntry `json:"jobs"`
}

// HandleQueueAdd 把职位加入投递队列,按 ID 去重
// POST /api/v1/apply/queue
func (h *ApplyHandler) HandleQueueAdd(ctx context.Context, c *app.RequestContext) {
	var req QueueAddRequest
	if err := c.BindJSON(&req); err != nil || len(req.Jobs) == 0 {
		writeBadRequest(c, "需要 jobs 列表")
		return
	}

	added, err := h.storage.Queue.Add(req.Jobs)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logger.Printf("入队 %d 个职位 (提交 %d 个)", added, len(req.Jobs))
	c.JSON(consts.StatusOK, utils.H{"added": added})
}

// HandleQueueList 返回当前投递队列
// GET /api/v1/apply/queue
func (h *ApplyHandler) HandleQueueList(ctx context.Context, c *app.RequestContext) {
	entries, err := h.storage.Queue.List()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"total": len(entries), "queue": entries})
}

// HandleQueueRemove 从队列移除一个职位
// DELETE /api/v1/apply/queue/:job_id
func (h *ApplyHandler) HandleQueueRemove(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	removed, err := h.storage.Queue.Remove(jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !removed {
		writeNotFound(c, "Job not found in queue: "+jobID)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"removed": jobID})
}

// QueueReorderRequest 队列重排请求,jobs 为期望的 ID 顺序
type QueueReorderRequest struct {
	JobIDs []string `json:"job_ids"`
}

// HandleQueueReorder 按给定顺序重排队列,未提到的条目保持原相对顺序排在末尾
// POST /api/v1/apply/queue/reorder
func (h *ApplyHandler) HandleQueueReorder(ctx context.Context, c *app.RequestContext) {
	var req QueueReorderRequest
	if err := c.BindJSON(&req); err != nil {
		writeBadRequest(c, "请求体解析失败: "+err.Error())
		return
	}

	entries, err := h.storage.Queue.Reorder(req.JobIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"total": len(entries), "queue": entries})
}
