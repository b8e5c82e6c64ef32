package handler

import (
	"context"
	"log"
	"os"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"auto-apply-go/internal/generator"
	"auto-apply-go/internal/storage"
)

// AnswerHandler 标准问题答案库相关接口
type AnswerHandler struct {
	library *generator.AnswerLibrary
	profile *storage.ProfileStore
	logger  *log.Logger
}

// NewAnswerHandler 创建答案库处理器
func NewAnswerHandler(library *generator.AnswerLibrary, profile *storage.ProfileStore) *AnswerHandler {
	return &AnswerHandler{
		library: library,
		profile: profile,
		logger:  log.New(os.Stdout, "[AnswerHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// GenerateAnswersRequest 答案生成请求
type GenerateAnswersRequest struct {
	Categories  []string       `json:"categories"`
	Constraints map[string]any `json:"constraints"`
}

// HandleGenerateAnswers 按学生档案生成标准问题答案并入库
// POST /api/v1/answers/generate
func (h *AnswerHandler) HandleGenerateAnswers(ctx context.Context, c *app.RequestContext) {
	var req GenerateAnswersRequest
	if err := c.BindJSON(&req); err != nil {
		writeBadRequest(c, "请求体解析失败: "+err.Error())
		return
	}

	profile, err := h.profile.Load()
	if err != nil {
		writeError(c, err)
		return
	}
	if profile == nil {
		writeNotFound(c, "Student profile not found")
		return
	}

	answers, err := h.library.Generate(ctx, profile, req.Constraints, req.Categories)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.library.Save(answers); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"total": len(answers), "answers": answers})
}

// HandleListAnswers 返回答案库全部条目
// GET /api/v1/answers
func (h *AnswerHandler) HandleListAnswers(ctx context.Context, c *app.RequestContext) {
	answers, err := h.library.GetAll()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"total": len(answers), "answers": answers})
}

// UpdateAnswerRequest 答案编辑请求
type UpdateAnswerRequest struct {
	Answer string `json:"answer"`
}

// HandleUpdateAnswer 人工编辑某条答案,清除待编辑标记
// PUT /api/v1/answers/:answer_id
func (h *AnswerHandler) HandleUpdateAnswer(ctx context.Context, c *app.RequestContext) {
	answerID := c.Param("answer_id")
	var req UpdateAnswerRequest
	if err := c.BindJSON(&req); err != nil || req.Answer == "" {
		writeBadRequest(c, "需要 answer")
		return
	}

	updated, err := h.library.UpdateAnswer(answerID, req.Answer)
	if err != nil {
		writeError(c, err)
		return
	}
	if updated == nil {
		writeNotFound(c, "Answer not found: "+answerID)
		return
	}
	c.JSON(consts.StatusOK, updated)
}

// HandleDeleteAnswer 删除一条答案
// DELETE /api/v1/answers/:answer_id
func (h *AnswerHandler) HandleDeleteAnswer(ctx context.Context, c *app.RequestContext) {
	answerID := c.Param("answer_id")
	deleted, err := h.library.DeleteAnswer(answerID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !deleted {
		writeNotFound(c, "Answer not found: "+answerID)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"deleted": answerID})
}
