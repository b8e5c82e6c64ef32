package tracker

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/submitter"
	"auto-apply-go/internal/types"
)

// TrackerError 跟踪面板操作失败
type TrackerError struct {
	Message string
	Err     error
}

func (e *TrackerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TrackerError) Unwrap() error { return e.Err }

// submittedStatuses 视为"已投出"的状态,包含投出后被推进到的阶段
var submittedStatuses = map[string]bool{
	types.StatusSubmitted:    true,
	types.StatusInterviewing: true,
	types.StatusOffered:      true,
	types.StatusRejected:     true,
}

// Summary 面板汇总统计
type Summary struct {
	TotalApplications int                 `json:"total_applications"`
	SuccessRate       float64             `json:"success_rate"`
	SubmittedCount    int                 `json:"submitted_count"`
	FailedCount       int                 `json:"failed_count"`
	StatusBreakdown   map[string]int      `json:"status_breakdown"`
	RecentActivity    []types.Application `json:"recent_activity"`
}

// Filter 投递记录列表的过滤条件,零值字段不参与过滤
type Filter struct {
	Status   string
	Company  string // 公司名包含匹配,大小写不敏感
	DateFrom string // ISO8601,含边界
	DateTo   string
	Limit    int // 0 走默认上限
}

const defaultFilterLimit = 100

// Tracker 投递跟踪面板。汇总统计、条件筛选、失败分析和重试编排。
type Tracker struct {
	applications *storage.ApplicationStore
	submitter    *submitter.Client
	logger       *log.Logger
}

// NewTracker 创建跟踪面板
func NewTracker(applications *storage.ApplicationStore, sub *submitter.Client, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.Default()
	}
	return &Tracker{applications: applications, submitter: sub, logger: logger}
}

// Summary 返回面板汇总。成功率定义为 投出数/(投出数+失败数),
// 没有任何终盘记录时为 0。
func (t *Tracker) Summary() (*Summary, error) {
	apps, err := t.applications.LoadAll()
	if err != nil {
		return nil, &TrackerError{Message: "加载投递记录失败", Err: err}
	}

	summary := &Summary{
		TotalApplications: len(apps),
		StatusBreakdown:   map[string]int{},
		RecentActivity:    []types.Application{},
	}
	if len(apps) == 0 {
		return summary, nil
	}

	for _, app := range apps {
		status := app.Status
		if status == "" {
			status = "unknown"
		}
		summary.StatusBreakdown[status]++
		if submittedStatuses[status] {
			summary.SubmittedCount++
		}
	}
	summary.FailedCount = summary.StatusBreakdown[types.StatusFailed]

	if denom := summary.SubmittedCount + summary.FailedCount; denom > 0 {
		rate := float64(summary.SubmittedCount) / float64(denom) * 100
		summary.SuccessRate = math.Round(rate*10) / 10
	}

	sorted := make([]types.Application, len(apps))
	copy(sorted, apps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt > sorted[j].UpdatedAt
	})
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	summary.RecentActivity = sorted

	return summary, nil
}

// FilteredApplications 按条件筛选投递记录,按更新时间倒序
func (t *Tracker) FilteredApplications(filter Filter) ([]types.Application, error) {
	apps, err := t.applications.LoadAll()
	if err != nil {
		return nil, &TrackerError{Message: "加载投递记录失败", Err: err}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultFilterLimit
	}

	filtered := make([]types.Application, 0, len(apps))
	for _, app := range apps {
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if filter.Company != "" &&
			!strings.Contains(strings.ToLower(app.CompanyName), strings.ToLower(filter.Company)) {
			continue
		}
		// ISO8601 字符串可以直接按字典序比较
		date := app.AppliedAt
		if date == "" {
			date = app.UpdatedAt
		}
		if date != "" {
			if filter.DateFrom != "" && date < filter.DateFrom {
				continue
			}
			if filter.DateTo != "" && date > filter.DateTo {
				continue
			}
		}
		filtered = append(filtered, app)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].UpdatedAt > filtered[j].UpdatedAt
	})
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// Failed 列出全部失败的投递记录
func (t *Tracker) Failed() ([]types.Application, error) {
	return t.FilteredApplications(Filter{Status: types.StatusFailed})
}

// Retry 重试一条失败的投递。实际投递逻辑复用投递客户端,
// 状态更新由它负责,这里只做记录定位和错误包装。
func (t *Tracker) Retry(ctx context.Context, appID string) (*submitter.Result, error) {
	app, err := t.applications.GetByID(appID)
	if err != nil {
		return nil, &TrackerError{Message: "查询投递记录失败", Err: err}
	}
	if app == nil {
		return nil, &TrackerError{Message: "Application not found"}
	}
	if app.JobID == "" {
		return nil, &TrackerError{Message: "Application has no associated Job ID"}
	}

	t.logger.Printf("重试投递: app=%s job=%s", appID, app.JobID)
	result, err := t.submitter.Submit(ctx, app.JobID)
	if err != nil {
		return nil, &TrackerError{Message: "Retry failed", Err: err}
	}
	return result, nil
}
