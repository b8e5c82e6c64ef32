package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"auto-apply-go/internal/api/handler"
)

// Handlers 路由注册需要的全部处理器
type Handlers struct {
	Profile *handler.ProfileHandler
	Jobs    *handler.JobHandler
	Apply   *handler.ApplyHandler
	Policy  *handler.PolicyHandler
	Tracker *handler.TrackerHandler
	Answers *handler.AnswerHandler
	Search  *handler.SearchHandler
	Library *handler.LibraryHandler
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, handlers Handlers) {
	api := h.Group("/api/v1")

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	profile := api.Group("/profile")
	profile.POST("/upload-resume", handlers.Profile.HandleUploadResume)
	profile.GET("", handlers.Profile.HandleGetProfile)
	profile.PUT("", handlers.Profile.HandleSaveProfile)

	jobs := api.Group("/jobs")
	jobs.POST("", handlers.Jobs.HandleAddJobs)
	jobs.GET("", handlers.Jobs.HandleListJobs)
	jobs.POST("/rank", handlers.Jobs.HandleRankJobs)
	jobs.POST("/search", handlers.Search.HandleSearchJobs)
	jobs.GET("/:job_id", handlers.Jobs.HandleGetJob)

	apply := api.Group("/apply")
	apply.POST("/assemble", handlers.Apply.HandleAssemble)
	apply.POST("/submit", handlers.Apply.HandleSubmit)
	apply.POST("/batch/start", handlers.Apply.HandleBatchStart)
	apply.POST("/batch/stop", handlers.Apply.HandleBatchStop)
	apply.GET("/batch/status", handlers.Apply.HandleBatchStatus)
	apply.POST("/queue", handlers.Apply.HandleQueueAdd)
	apply.GET("/queue", handlers.Apply.HandleQueueList)
	apply.POST("/queue/reorder", handlers.Apply.HandleQueueReorder)
	apply.DELETE("/queue/:job_id", handlers.Apply.HandleQueueRemove)

	policyGroup := api.Group("/policy")
	policyGroup.GET("", handlers.Policy.HandleGetPolicy)
	policyGroup.POST("/set", handlers.Policy.HandleSetPolicy)
	policyGroup.GET("/check", handlers.Policy.HandleCheckPolicy)
	policyGroup.POST("/pause-all", handlers.Policy.HandlePauseAll)

	api.GET("/audit/:job_id", handlers.Policy.HandleGetAuditTrail)

	trackerGroup := api.Group("/tracker")
	trackerGroup.GET("/summary", handlers.Tracker.HandleSummary)
	trackerGroup.GET("/applications", handlers.Tracker.HandleListApplications)
	trackerGroup.GET("/failures", handlers.Tracker.HandleListFailures)
	trackerGroup.POST("/retry", handlers.Tracker.HandleRetry)

	answers := api.Group("/answers")
	answers.POST("/generate", handlers.Answers.HandleGenerateAnswers)
	answers.GET("", handlers.Answers.HandleListAnswers)
	answers.PUT("/:answer_id", handlers.Answers.HandleUpdateAnswer)
	answers.DELETE("/:answer_id", handlers.Answers.HandleDeleteAnswer)

	proofPack := api.Group("/proof-pack")
	proofPack.POST("/generate", handlers.Library.HandleGenerateProofPack)
	proofPack.GET("", handlers.Library.HandleGetProofPack)

	bullets := api.Group("/bullets")
	bullets.POST("/generate", handlers.Library.HandleGenerateBullets)
	bullets.GET("", handlers.Library.HandleListBullets)
	bullets.GET("/stats", handlers.Library.HandleBulletStats)
	bullets.DELETE("/:bullet_id", handlers.Library.HandleDeleteBullet)
}
