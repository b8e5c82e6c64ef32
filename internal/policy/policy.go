package policy

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// PolicyError 策略持久化或校验失败
type PolicyError struct {
	Message string
	Err     error
}

func (e *PolicyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PolicyError) Unwrap() error { return e.Err }

// defaultPolicy 策略文件缺失或字段缺省时的默认值
func defaultPolicy() types.Policy {
	return types.Policy{
		DailyLimit:         0,
		MinMatchScore:      60,
		BlockedCompanies:   []string{},
		Paused:             false,
		RemoteOnlyEnforced: false,
		UpdatedAt:          utils.NowISO(),
	}
}

// Engine 投递策略引擎。读写 apply_policy.json,
// 并在每次投递前按固定顺序执行六项检查,命中第一条失败即返回。
type Engine struct {
	path         string
	mu           sync.Mutex
	jobs         *storage.JobStore
	applications *storage.ApplicationStore
	logger       *log.Logger
}

// NewEngine 创建策略引擎
func NewEngine(path string, jobs *storage.JobStore, applications *storage.ApplicationStore, logger *log.Logger) *Engine {
	return &Engine{path: path, jobs: jobs, applications: applications, logger: logger}
}

// Get 返回当前策略,文件缺失或损坏时回退到默认值
func (e *Engine) Get() types.Policy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readLocked()
}

func (e *Engine) readLocked() types.Policy {
	p := defaultPolicy()
	if err := storage.ReadJSONFile(e.path, &p); err != nil {
		e.logger.Printf("读取投递策略失败,使用默认值: %v", err)
		return defaultPolicy()
	}
	if p.BlockedCompanies == nil {
		p.BlockedCompanies = []string{}
	}
	return p
}

// Set 按字段合并更新策略,打上 updated_at 后持久化。
// 未出现在 update 中的字段保持原值。
func (e *Engine) Set(update types.PolicyUpdate) (types.Policy, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.readLocked()
	if update.DailyLimit != nil {
		current.DailyLimit = *update.DailyLimit
	}
	if update.MinMatchScore != nil {
		current.MinMatchScore = *update.MinMatchScore
	}
	if update.BlockedCompanies != nil {
		current.BlockedCompanies = *update.BlockedCompanies
	}
	if update.Paused != nil {
		current.Paused = *update.Paused
	}
	if update.RemoteOnlyEnforced != nil {
		current.RemoteOnlyEnforced = *update.RemoteOnlyEnforced
	}
	current.UpdatedAt = utils.NowISO()

	if err := storage.WriteJSONFile(e.path, current); err != nil {
		return types.Policy{}, &PolicyError{Message: "保存策略更新失败", Err: err}
	}
	e.logger.Printf("投递策略已更新")
	return current, nil
}

// PauseAll 全局熔断开关,停止一切自动投递
func (e *Engine) PauseAll() bool {
	p, err := e.Set(types.PolicyUpdate{Paused: utils.BoolPtr(true)})
	if err != nil {
		return false
	}
	return p.Paused
}

// Check 对指定职位执行策略检查,按固定顺序短路:
// 全局暂停、职位存在性、公司黑名单、匹配分阈值、远程限制、当日限额。
// 顺序决定了多重违规时上报哪条原因,测试依赖这一点。
func (e *Engine) Check(jobID string) types.PolicyCheckResult {
	policy := e.Get()

	blocked := func(reason string) types.PolicyCheckResult {
		return types.PolicyCheckResult{Allowed: false, Reason: reason, PolicySnapshot: policy}
	}

	// 1. 全局熔断
	if policy.Paused {
		return blocked("Global policy PAUSED")
	}

	// 2. 职位必须存在
	job, err := e.jobs.GetByID(jobID)
	if err != nil || job == nil {
		return blocked("Job not found")
	}

	// 3. 公司黑名单,大小写不敏感的双向子串匹配
	company := strings.ToLower(job.Company)
	for _, b := range policy.BlockedCompanies {
		bl := strings.ToLower(b)
		if bl == "" {
			continue
		}
		if strings.Contains(company, bl) || strings.Contains(bl, company) {
			return blocked(fmt.Sprintf("Company '%s' is in blocked list", job.Company))
		}
	}

	// 4. 匹配分阈值。没有分数的职位直接放行,手动添加的职位不受惩罚
	if job.MatchScore != nil && *job.MatchScore < policy.MinMatchScore {
		return blocked(fmt.Sprintf("Match score %s below threshold %s",
			formatScore(*job.MatchScore), formatScore(policy.MinMatchScore)))
	}

	// 5. 远程限制:显式标记或 location/title 中出现 remote 字样均算远程
	if policy.RemoteOnlyEnforced {
		isRemote := job.IsRemote ||
			strings.Contains(strings.ToLower(job.Location), "remote") ||
			strings.Contains(strings.ToLower(job.Title), "remote")
		if !isRemote {
			return blocked("Job is not Remote (Policy Enforced)")
		}
	}

	// 6. 当日限额,0 表示不限
	if policy.DailyLimit > 0 {
		count, err := e.applications.CountToday()
		if err != nil {
			e.logger.Printf("统计当日投递数失败: %v", err)
		} else if count >= policy.DailyLimit {
			return blocked(fmt.Sprintf("Daily limit reached (%d/%d)", count, policy.DailyLimit))
		}
	}

	return types.PolicyCheckResult{Allowed: true, Reason: "Policy checks passed", PolicySnapshot: policy}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
