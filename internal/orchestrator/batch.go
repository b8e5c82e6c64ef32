package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"auto-apply-go/internal/assembler"
	"auto-apply-go/internal/audit"
	"auto-apply-go/internal/constants"
	"auto-apply-go/internal/policy"
	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/submitter"
	"auto-apply-go/internal/tracing"
	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

const tracerName = "auto-apply-go/internal/orchestrator"

var (
	// ErrAlreadyRunning 已有批次在跑时再次启动
	ErrAlreadyRunning = errors.New("Batch already running")
	// ErrNotRunning 没有批次在跑时请求停止
	ErrNotRunning = errors.New("No batch running")
)

// BatchStatus 批处理状态快照
type BatchStatus struct {
	IsRunning      bool     `json:"is_running"`
	TotalJobs      int      `json:"total_jobs"`
	ProcessedCount int      `json:"processed_count"`
	SuccessCount   int      `json:"success_count"`
	FailedCount    int      `json:"failed_count"`
	CurrentJobID   *string  `json:"current_job_id"`
	CurrentStatus  string   `json:"current_status"`
	Logs           []string `json:"logs"`
	StartTime      string   `json:"start_time,omitempty"`
}

// batchState 批处理的内部可变状态,全部读写都在 mu 保护下
type batchState struct {
	isRunning      bool
	stopRequested  bool
	totalJobs      int
	processedCount int
	successCount   int
	failedCount    int
	currentJobID   *string
	currentStatus  string
	logs           []string
	startTime      string
}

// Orchestrator 批处理编排器。单 worker goroutine 顺序消费投递队列,
// 对每个职位依次做幂等检查、策略检查、打包、投递。
// 单个职位的任何失败都不会中断批次,只有编排逻辑本身出错才走 crashed 路径。
type Orchestrator struct {
	store     *storage.Storage
	trail     *audit.Trail
	policy    *policy.Engine
	assembler *assembler.Assembler
	submitter *submitter.Client
	pacing    time.Duration
	logger    *log.Logger

	mu    sync.Mutex
	state batchState
	wg    sync.WaitGroup
}

// NewOrchestrator 创建批处理编排器。pacing 为两个职位之间的固定间隔,
// 负值回落到默认节奏,零值表示不等待(测试用)。
func NewOrchestrator(
	store *storage.Storage,
	trail *audit.Trail,
	policyEngine *policy.Engine,
	asm *assembler.Assembler,
	sub *submitter.Client,
	pacing time.Duration,
	logger *log.Logger,
) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if pacing < 0 {
		pacing = constants.DefaultBatchPacing
	}
	return &Orchestrator{
		store:     store,
		trail:     trail,
		policy:    policyEngine,
		assembler: asm,
		submitter: sub,
		pacing:    pacing,
		logger:    logger,
		state:     batchState{currentStatus: "idle"},
	}
}

// Start 启动后台批处理,已有批次在跑时报错
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.state.isRunning {
		o.mu.Unlock()
		return ErrAlreadyRunning
	}
	o.state = batchState{
		isRunning:     true,
		currentStatus: "idle",
		startTime:     utils.NowISO(),
	}
	o.logLocked("Starting batch process...")
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.worker(ctx)
	}()
	return nil
}

// Stop 请求停止当前批次。只是打标记,worker 在下一个职位前检查退出。
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.state.isRunning {
		return ErrNotRunning
	}
	o.state.stopRequested = true
	o.logLocked("Stop requested by user...")
	return nil
}

// Status 返回当前状态快照,日志做拷贝
func (o *Orchestrator) Status() BatchStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	logs := make([]string, len(o.state.logs))
	copy(logs, o.state.logs)
	return BatchStatus{
		IsRunning:      o.state.isRunning,
		TotalJobs:      o.state.totalJobs,
		ProcessedCount: o.state.processedCount,
		SuccessCount:   o.state.successCount,
		FailedCount:    o.state.failedCount,
		CurrentJobID:   o.state.currentJobID,
		CurrentStatus:  o.state.currentStatus,
		Logs:           logs,
		StartTime:      o.state.startTime,
	}
}

// Wait 等待当前 worker 退出,测试用
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// logLocked 追加一条带时间戳的状态日志,环形保留最近若干条。调用方必须持有 mu。
func (o *Orchestrator) logLocked(message string) {
	entry := fmt.Sprintf("[%s] %s", time.Now().UTC().Format("15:04:05"), message)
	o.state.logs = append(o.state.logs, entry)
	if len(o.state.logs) > constants.BatchLogCap {
		o.state.logs = o.state.logs[1:]
	}
}

func (o *Orchestrator) withLock(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn()
}

// worker 批处理主循环。队列在启动时加载一次快照,
// 跑批期间新入队的职位留给下一个批次。
func (o *Orchestrator) worker(ctx context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "batch.run")
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("批处理 worker 崩溃: %v", r)
			o.withLock(func() {
				o.logLocked(fmt.Sprintf("Process crashed: %v", r))
				o.state.currentStatus = "crashed"
			})
		}
		o.withLock(func() {
			o.state.isRunning = false
			o.state.stopRequested = false
			o.state.currentJobID = nil
		})
	}()

	queue, err := o.store.Queue.List()
	if err != nil {
		o.logger.Printf("读取投递队列失败: %v", err)
		queue = nil
	}
	o.withLock(func() {
		o.state.totalJobs = len(queue)
		o.logLocked(fmt.Sprintf("Loaded %d jobs from queue", len(queue)))
	})
	span.SetAttributes(attribute.Int("batch.total_jobs", len(queue)))

	stopped := false
	for _, entry := range queue {
		o.mu.Lock()
		if o.state.stopRequested {
			o.logLocked("Batch stopped manually.")
			o.state.currentStatus = "stopped"
			o.mu.Unlock()
			stopped = true
			break
		}
		jobID := entry.ID
		o.state.currentJobID = &jobID
		o.state.currentStatus = fmt.Sprintf("Processing job %s", jobID)
		o.logLocked(fmt.Sprintf("Processing Job %s...", jobID))
		o.mu.Unlock()

		o.processJob(ctx, jobID)

		o.withLock(func() { o.state.processedCount++ })
		if o.pacing > 0 {
			time.Sleep(o.pacing)
		}
	}

	if !stopped {
		o.withLock(func() {
			o.logLocked("Batch processing completed.")
			o.state.currentStatus = "completed"
		})
	}
}

// processJob 处理单个职位。任何失败只影响该职位的计数和日志。
func (o *Orchestrator) processJob(ctx context.Context, jobID string) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "batch.process_job")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	// 幂等保护:已投出或已推进的申请不重复投
	if o.alreadyApplied(jobID) {
		o.withLock(func() { o.logLocked(fmt.Sprintf("Skipping %s: Already applied", jobID)) })
		span.SetAttributes(attribute.String("job.outcome", "already_applied"))
		return
	}

	// 策略检查
	check := o.policy.Check(jobID)
	if !check.Allowed {
		o.withLock(func() {
			o.logLocked(fmt.Sprintf("Skipping %s: Policy blocked - %s", jobID, check.Reason))
		})
		o.trail.Log(jobID, constants.AuditEventPolicyCheck, "Application Policy", map[string]any{
			"status": "blocked", "reason": check.Reason,
		})
		tracing.RecordError(span, fmt.Errorf("policy blocked: %s", check.Reason), tracing.ErrorTypePolicy)
		return
	}
	o.trail.Log(jobID, constants.AuditEventPolicyCheck, "Application Policy", map[string]any{
		"status": "allowed",
	})

	// 打包
	o.withLock(func() { o.state.currentStatus = "Assembling package..." })
	if _, err := o.assembler.Assemble(ctx, jobID, nil); err != nil {
		o.withLock(func() {
			o.logLocked(fmt.Sprintf("Assembly failed for %s: %v", jobID, err))
			o.state.failedCount++
		})
		o.trail.Log(jobID, constants.AuditEventAssembly, "Package Assembly", map[string]any{
			"status": "failed", "error": err.Error(),
		})
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return
	}

	// 投递
	o.withLock(func() { o.state.currentStatus = "Submitting..." })
	result, err := o.submitter.Submit(ctx, jobID)
	if err != nil {
		o.withLock(func() {
			o.logLocked(fmt.Sprintf("Submission failed for %s: %v", jobID, err))
			o.state.failedCount++
		})
		o.trail.Log(jobID, constants.AuditEventSubmission, "Final Submission", map[string]any{
			"status": "failed", "error": err.Error(),
		})
		tracing.RecordError(span, err, tracing.ErrorTypeSubmission)
		return
	}

	o.withLock(func() {
		o.logLocked(fmt.Sprintf("Successfully submitted to %s", jobID))
		o.state.successCount++
	})
	span.SetAttributes(attribute.String("job.outcome", "submitted"))
	o.trail.Log(jobID, constants.AuditEventSubmission, "Final Submission", map[string]any{
		"status": "success", "result": result,
	})
}

// alreadyApplied 判断该职位是否已有终态或推进中的申请记录
func (o *Orchestrator) alreadyApplied(jobID string) bool {
	apps, err := o.store.Applications.FindByJobID(jobID)
	if err != nil {
		o.logger.Printf("查询申请记录失败, 按未申请处理: %v", err)
		return false
	}
	for _, a := range apps {
		if types.TerminalStatuses[a.Status] {
			return true
		}
	}
	return false
}
