package handler

import (
	"context"
	"log"
	"os"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"auto-apply-go/internal/parser"
	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/types"
)

// ProfileHandler 学生档案相关接口
type ProfileHandler struct {
	storage          *storage.Storage
	pdfExtractor     *parser.ResumePDFExtractor
	profileExtractor *parser.ProfileExtractor
	logger           *log.Logger
}

// NewProfileHandler 创建档案处理器
func NewProfileHandler(
	store *storage.Storage,
	pdfExtractor *parser.ResumePDFExtractor,
	profileExtractor *parser.ProfileExtractor,
) *ProfileHandler {
	return &ProfileHandler{
		storage:          store,
		pdfExtractor:     pdfExtractor,
		profileExtractor: profileExtractor,
		logger:           log.New(os.Stdout, "[ProfileHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// HandleUploadResume 处理简历 PDF 上传,解析出结构化档案并持久化。
// POST /api/v1/profile/upload-resume
func (h *ProfileHandler) HandleUploadResume(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeBadRequest(c, "文件未找到")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return
	}
	defer file.Close()

	h.logger.Printf("收到简历上传: %s (%d bytes)", fileHeader.Filename, fileHeader.Size)

	text, meta, err := h.pdfExtractor.ExtractFromReader(ctx, file, fileHeader.Filename, nil)
	if err != nil {
		writeError(c, err)
		return
	}

	profile, warnings, err := h.profileExtractor.Extract(ctx, text)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.storage.Profile.Save(*profile); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(consts.StatusOK, utils.H{
		"profile":     profile,
		"warnings":    warnings,
		"text_length": meta["text_length"],
	})
}

// HandleGetProfile 返回当前学生档案
// GET /api/v1/profile
func (h *ProfileHandler) HandleGetProfile(ctx context.Context, c *app.RequestContext) {
	profile, err := h.storage.Profile.Load()
	if err != nil {
		writeError(c, err)
		return
	}
	if profile == nil {
		writeNotFound(c, "Student profile not found")
		return
	}
	c.JSON(consts.StatusOK, profile)
}

// HandleSaveProfile 整体覆盖学生档案
// PUT /api/v1/profile
func (h *ProfileHandler) HandleSaveProfile(ctx context.Context, c *app.RequestContext) {
	var profile types.Profile
	if err := c.BindJSON(&profile); err != nil {
		writeBadRequest(c, "请求体解析失败: "+err.Error())
		return
	}
	if err := h.storage.Profile.Save(profile); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"status": "saved"})
}
