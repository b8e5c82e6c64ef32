package handler

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"auto-apply-go/internal/tracker"
)

// TrackerHandler 投递跟踪面板相关接口
type TrackerHandler struct {
	tracker *tracker.Tracker
	logger  *log.Logger
}

// NewTrackerHandler 创建跟踪处理器
func NewTrackerHandler(tr *tracker.Tracker) *TrackerHandler {
	return &TrackerHandler{
		tracker: tr,
		logger:  log.New(os.Stdout, "[TrackerHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// HandleSummary 返回面板汇总统计
// GET /api/v1/tracker/summary
func (h *TrackerHandler) HandleSummary(ctx context.Context, c *app.RequestContext) {
	summary, err := h.tracker.Summary()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, summary)
}

// HandleListApplications 按条件筛选投递记录
// GET /api/v1/tracker/applications?status=&company=&date_from=&date_to=&limit=
func (h *TrackerHandler) HandleListApplications(ctx context.Context, c *app.RequestContext) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			writeBadRequest(c, "limit 必须是非负整数")
			return
		}
		limit = n
	}

	apps, err := h.tracker.FilteredApplications(tracker.Filter{
		Status:   c.Query("status"),
		Company:  c.Query("company"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Limit:    limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"total": len(apps), "applications": apps})
}

// HandleListFailures 返回全部失败的投递记录
// GET /api/v1/tracker/failures
func (h *TrackerHandler) HandleListFailures(ctx context.Context, c *app.RequestContext) {
	apps, err := h.tracker.Failed()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"total": len(apps), "applications": apps})
}

// RetryRequest 重试请求
type RetryRequest struct {
	ApplicationID string `json:"application_id"`
}

// HandleRetry 重试一条失败的投递
// POST /api/v1/tracker/retry
func (h *TrackerHandler) HandleRetry(ctx context.Context, c *app.RequestContext) {
	var req RetryRequest
	if err := c.BindJSON(&req); err != nil || req.ApplicationID == "" {
		writeBadRequest(c, "需要 application_id")
		return
	}

	h.logger.Printf("收到重试请求: %s", req.ApplicationID)
	result, err := h.tracker.Retry(ctx, req.ApplicationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, result)
}
