package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/spf13/pflag"

	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"auto-apply-go/internal/agent"
	"auto-apply-go/internal/api/handler"
	"auto-apply-go/internal/api/router"
	"auto-apply-go/internal/assembler"
	"auto-apply-go/internal/audit"
	appconfig "auto-apply-go/internal/config"
	"auto-apply-go/internal/constants"
	"auto-apply-go/internal/generator"
	appCoreLogger "auto-apply-go/internal/logger"
	"auto-apply-go/internal/orchestrator"
	"auto-apply-go/internal/parser"
	"auto-apply-go/internal/policy"
	"auto-apply-go/internal/ranker"
	"auto-apply-go/internal/search"
	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/submitter"
	"auto-apply-go/internal/tracing"
	"auto-apply-go/internal/tracker"
	"auto-apply-go/pkg/ratelimit"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := appconfig.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 链路追踪
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, tracing.Options{
			ServiceName:  cfg.Tracing.ServiceName,
			OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
			SampleRatio:  cfg.Tracing.SampleRatio,
		})
		if err != nil {
			glog.Fatalf("初始化链路追踪失败: %v", err)
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := shutdown(shutdownCtx); err != nil {
				glog.Warnf("链路追踪关闭失败: %v", err)
			}
		}()
		glog.Info("链路追踪初始化成功")
	}

	// 存储与审计
	store := storage.NewStorage(cfg.Data.Dir)
	trail := audit.NewTrail(filepath.Join(cfg.Data.Dir, constants.AuditLogFile), componentLogger(cfg, "[Audit] "))
	glog.Info("存储服务初始化成功")

	// LLM 模型:主模型 + 轻量模型,都套用每分钟请求速率限制
	mainModel, err := agent.NewGroqChatModel(cfg.Groq.APIKey, cfg.Groq.Model, cfg.Groq.APIURL,
		agent.WithLogger(componentLogger(cfg, "[GroqModel] ")))
	if err != nil {
		glog.Fatalf("初始化 Groq 主模型失败: %v", err)
	}
	fastModel, err := agent.NewGroqChatModel(cfg.Groq.APIKey, cfg.Groq.FastModel, cfg.Groq.APIURL,
		agent.WithLogger(componentLogger(cfg, "[GroqFastModel] ")))
	if err != nil {
		glog.Fatalf("初始化 Groq 轻量模型失败: %v", err)
	}
	limitedMain := ratelimit.NewLLMWithRateLimit(mainModel, cfg.Groq.Model, cfg.ModelQPMLimits, cfg.Groq.QPM, 3, time.Second)
	limitedFast := ratelimit.NewLLMWithRateLimit(fastModel, cfg.Groq.FastModel, cfg.ModelQPMLimits, cfg.Groq.QPM, 3, time.Second)
	glog.Infof("LLM 模型初始化成功: %s / %s", cfg.Groq.Model, cfg.Groq.FastModel)

	// 生成器组件
	llmClient := generator.NewClient(limitedMain, limitedFast, componentLogger(cfg, "[LLMClient] "))
	verifier := generator.NewVerifier(llmClient, store.Profile, componentLogger(cfg, "[Verifier] "))
	resumeTailor := generator.NewResumeTailor(llmClient, verifier, componentLogger(cfg, "[ResumeTailor] "))
	coverWriter := generator.NewCoverLetterWriter(llmClient, verifier, componentLogger(cfg, "[CoverLetter] "))
	evidenceMapper := generator.NewEvidenceMapper(llmClient, componentLogger(cfg, "[EvidenceMapper] "))
	answerLibrary := generator.NewAnswerLibrary(llmClient,
		filepath.Join(cfg.Data.Dir, constants.AnswerLibraryFile), componentLogger(cfg, "[AnswerLibrary] "))
	proofPackBuilder := generator.NewProofPackBuilder(llmClient, componentLogger(cfg, "[ProofPack] "))
	bulletGenerator := generator.NewBulletGenerator(llmClient, componentLogger(cfg, "[Bullets] "))
	glog.Info("生成器组件初始化成功")

	// 档案解析
	pdfExtractor, err := parser.NewResumePDFExtractor(ctx, parser.WithPDFLogger(componentLogger(cfg, "[PDFExtractor] ")))
	if err != nil {
		glog.Fatalf("创建 PDF 提取器失败: %v", err)
	}
	profileExtractor := parser.NewProfileExtractor(llmClient, componentLogger(cfg, "[ProfileExtractor] "))
	glog.Info("档案解析组件初始化成功")

	// 核心流水线
	policyEngine := policy.NewEngine(filepath.Join(cfg.Data.Dir, constants.PolicyFile),
		store.Jobs, store.Applications, componentLogger(cfg, "[Policy] "))
	jobRanker := ranker.NewRanker(llmClient, componentLogger(cfg, "[Ranker] "))
	asm := assembler.NewAssembler(store, trail, resumeTailor, coverWriter, evidenceMapper, answerLibrary,
		componentLogger(cfg, "[Assembler] "))
	sub := submitter.NewClient(cfg.Sandbox.BaseURL, cfg.Sandbox.APIKey, store.Applications,
		componentLogger(cfg, "[Submitter] "),
		submitter.WithMaxAttempts(cfg.Sandbox.MaxAttempts),
		submitter.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Sandbox.TimeoutSeconds) * time.Second}))
	orch := orchestrator.NewOrchestrator(store, trail, policyEngine, asm, sub,
		time.Duration(cfg.Batch.PacingSeconds)*time.Second, componentLogger(cfg, "[Orchestrator] "))
	trk := tracker.NewTracker(store.Applications, sub, componentLogger(cfg, "[Tracker] "))
	jobSearch := search.NewService(cfg.Sandbox.BaseURL, store.Jobs, componentLogger(cfg, "[Search] "))
	glog.Info("投递流水线初始化成功")

	// HTTP 服务
	serverOptions := []config.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	}
	var tracerCfg *hertztracing.Config
	if cfg.Tracing.Enabled {
		tracer, tcfg := hertztracing.NewServerTracer()
		serverOptions = append(serverOptions, tracer)
		tracerCfg = tcfg
	}
	h := server.New(serverOptions...)
	if tracerCfg != nil {
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
	}

	router.RegisterRoutes(h, router.Handlers{
		Profile: handler.NewProfileHandler(store, pdfExtractor, profileExtractor),
		Jobs:    handler.NewJobHandler(store, jobRanker),
		Apply:   handler.NewApplyHandler(store, asm, sub, orch),
		Policy:  handler.NewPolicyHandler(policyEngine, trail),
		Tracker: handler.NewTrackerHandler(trk),
		Answers: handler.NewAnswerHandler(answerLibrary, store.Profile),
		Search:  handler.NewSearchHandler(jobSearch),
		Library: handler.NewLibraryHandler(proofPackBuilder, bulletGenerator, store),
	})
	glog.Info("HTTP 路由注册成功")

	go func() {
		glog.Infof("HTTP 服务器启动中, 监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			glog.Fatalf("启动 HTTP 服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号, 正在优雅退出...")

	// 先请求批处理停止,worker 在下一个职位前退出
	if err := orch.Stop(); err == nil {
		orch.Wait()
		glog.Info("批处理已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化全局 zerolog 并接管 hertz 的日志输出
func initLogger(cfg *appconfig.Config) {
	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	if cfg.Logger.Level == "debug" {
		glog.SetLevel(glog.LevelDebug)
	} else {
		glog.SetLevel(glog.LevelInfo)
	}
}

// componentLogger 为单个组件创建带前缀的标准库 logger,
// 底层写到全局 zerolog。debug 以下级别的组件日志直接丢弃。
func componentLogger(cfg *appconfig.Config, prefix string) *log.Logger {
	if cfg.Logger.Level == "debug" {
		return log.New(appCoreLogger.Logger, prefix, log.LstdFlags|log.Lshortfile)
	}
	return log.New(io.Discard, "", 0)
}
