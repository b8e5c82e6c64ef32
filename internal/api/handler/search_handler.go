package handler

import (
	"context"
	"log"
	"os"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"auto-apply-go/internal/search"
)

// SearchHandler 沙箱门户职位抓取接口
type SearchHandler struct {
	service *search.Service
	logger  *log.Logger
}

// NewSearchHandler 创建职位抓取处理器
func NewSearchHandler(service *search.Service) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  log.New(os.Stdout, "[SearchHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// HandleSearchJobs 按约束抓取门户职位,新职位写入职位库
// POST /api/v1/jobs/search
func (h *SearchHandler) HandleSearchJobs(ctx context.Context, c *app.RequestContext) {
	var constraints search.Constraints
	if len(c.Request.Body()) > 0 {
		if err := c.BindJSON(&constraints); err != nil {
			writeBadRequest(c, "请求体解析失败: "+err.Error())
			return
		}
	}

	result, err := h.service.Search(ctx, constraints)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logger.Printf("抓取完成: %s", result.Message)
	c.JSON(consts.StatusOK, result)
}
