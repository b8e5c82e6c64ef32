package handler

import (
	"context"
	"log"
	"os"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"auto-apply-go/internal/ranker"
	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/types"
)

// JobHandler 职位库与排序相关接口
type JobHandler struct {
	storage *storage.Storage
	ranker  *ranker.Ranker
	logger  *log.Logger
}

// NewJobHandler 创建职位处理器
func NewJobHandler(store *storage.Storage, rk *ranker.Ranker) *JobHandler {
	return &JobHandler{
		storage: store,
		ranker:  rk,
		logger:  log.New(os.Stdout, "[JobHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// HandleAddJobs 批量导入职位
// POST /api/v1/jobs
func (h *JobHandler) HandleAddJobs(ctx context.Context, c *app.RequestContext) {
	var jobs []types.Job
	if err := c.BindJSON(&jobs); err != nil {
		writeBadRequest(c, "请求体解析失败: "+err.Error())
		return
	}

	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		id, err := h.storage.Jobs.Add(job)
		if err != nil {
			writeError(c, err)
			return
		}
		ids = append(ids, id)
	}
	h.logger.Printf("导入 %d 个职位", len(ids))
	c.JSON(consts.StatusOK, utils.H{"added": len(ids), "ids": ids})
}

// HandleListJobs 返回职位列表
// GET /api/v1/jobs
func (h *JobHandler) HandleListJobs(ctx context.Context, c *app.RequestContext) {
	jobs, err := h.storage.Jobs.LoadAll()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"total": len(jobs), "jobs": jobs})
}

// HandleGetJob 返回单个职位
// GET /api/v1/jobs/:job_id
func (h *JobHandler) HandleGetJob(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	job, err := h.storage.Jobs.GetByID(jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	if job == nil {
		writeNotFound(c, "Job not found: "+jobID)
		return
	}
	c.JSON(consts.StatusOK, job)
}

// RankJobsRequest 职位排序请求
type RankJobsRequest struct {
	RemoteOnly         bool     `json:"remote_only"`
	VisaRequired       bool     `json:"visa_required"`
	PreferredLocations []string `json:"preferred_locations"`
}

// HandleRankJobs 按学生档案对职位库打分排序,分数写回职位库
// POST /api/v1/jobs/rank
func (h *JobHandler) HandleRankJobs(ctx context.Context, c *app.RequestContext) {
	var req RankJobsRequest
	if err := c.BindJSON(&req); err != nil {
		writeBadRequest(c, "请求体解析失败: "+err.Error())
		return
	}

	profile, err := h.storage.Profile.Load()
	if err != nil {
		writeError(c, err)
		return
	}
	if profile == nil {
		writeNotFound(c, "Student profile not found")
		return
	}

	jobs, err := h.storage.Jobs.LoadAll()
	if err != nil {
		writeError(c, err)
		return
	}

	ranked := h.ranker.Rank(ctx, jobs, profile, ranker.Constraints{
		RemoteOnly:         req.RemoteOnly,
		VisaRequired:       req.VisaRequired,
		PreferredLocations: req.PreferredLocations,
	})

	if err := h.storage.Jobs.SaveAll(ranked); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(consts.StatusOK, utils.H{"total": len(ranked), "jobs": ranked})
}
