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
	"auto-apply-go/internal/types"
)

// LibraryHandler 证明材料包与简历要点库相关接口
type LibraryHandler struct {
	proofPacks *generator.ProofPackBuilder
	bullets    *generator.BulletGenerator
	storage    *storage.Storage
	logger     *log.Logger
}

// NewLibraryHandler 创建素材库处理器
func NewLibraryHandler(proofPacks *generator.ProofPackBuilder, bullets *generator.BulletGenerator, store *storage.Storage) *LibraryHandler {
	return &LibraryHandler{
		proofPacks: proofPacks,
		bullets:    bullets,
		storage:    store,
		logger:     log.New(os.Stdout, "[LibraryHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

func (h *LibraryHandler) loadProfile(c *app.RequestContext) *types.Profile {
	profile, err := h.storage.Profile.Load()
	if err != nil {
		writeError(c, err)
		return nil
	}
	if profile == nil {
		writeNotFound(c, "Student profile not found")
		return nil
	}
	return profile
}

// HandleGenerateProofPack 从档案生成证明材料包并入库
// POST /api/v1/proof-pack/generate
func (h *LibraryHandler) HandleGenerateProofPack(ctx context.Context, c *app.RequestContext) {
	profile := h.loadProfile(c)
	if profile == nil {
		return
	}

	items, err := h.proofPacks.Build(ctx, profile)
	if err != nil {
		writeError(c, err)
		return
	}
	packID, err := h.storage.ProofPacks.Save(items)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logger.Printf("生成材料包 %s,共 %d 条", packID, len(items))
	c.JSON(consts.StatusOK, utils.H{"pack_id": packID, "total": len(items), "items": items})
}

// HandleGetProofPack 返回最近一份材料包
// GET /api/v1/proof-pack
func (h *LibraryHandler) HandleGetProofPack(ctx context.Context, c *app.RequestContext) {
	pack, err := h.storage.ProofPacks.Latest()
	if err != nil {
		writeError(c, err)
		return
	}
	if pack == nil {
		writeNotFound(c, "Proof pack not found")
		return
	}
	c.JSON(consts.StatusOK, pack)
}

// HandleGenerateBullets 从档案生成要点并存入要点库
// POST /api/v1/bullets/generate
func (h *LibraryHandler) HandleGenerateBullets(ctx context.Context, c *app.RequestContext) {
	profile := h.loadProfile(c)
	if profile == nil {
		return
	}

	bullets, err := h.bullets.Generate(ctx, profile)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.storage.Bullets.Save(bullets); err != nil {
		writeError(c, err)
		return
	}
	h.logger.Printf("生成 %d 条要点", len(bullets))
	c.JSON(consts.StatusOK, utils.H{"total": len(bullets), "bullets": bullets})
}

// HandleListBullets 返回要点库,支持 category 与 source 过滤
// GET /api/v1/bullets
func (h *LibraryHandler) HandleListBullets(ctx context.Context, c *app.RequestContext) {
	var (
		bullets []types.Bullet
		err     error
	)
	if category := c.Query("category"); category != "" {
		bullets, err = h.storage.Bullets.ByCategory(category)
	} else if source := c.Query("source"); source != "" {
		bullets, err = h.storage.Bullets.BySource(source)
	} else {
		bullets, err = h.storage.Bullets.LoadAll()
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"total": len(bullets), "bullets": bullets})
}

// HandleBulletStats 返回要点库统计
// GET /api/v1/bullets/stats
func (h *LibraryHandler) HandleBulletStats(ctx context.Context, c *app.RequestContext) {
	stats, err := h.storage.Bullets.Stats()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, stats)
}

// HandleDeleteBullet 删除单条要点
// DELETE /api/v1/bullets/:bullet_id
func (h *LibraryHandler) HandleDeleteBullet(ctx context.Context, c *app.RequestContext) {
	bulletID := c.Param("bullet_id")
	deleted, err := h.storage.Bullets.Delete(bulletID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !deleted {
		writeNotFound(c, "Bullet not found: "+bulletID)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"deleted": bulletID})
}
