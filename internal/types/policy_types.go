package types

// Policy 自动投递策略，进程内单例配置。每次策略检查都会读取，仅操作员显式更新时写入。
type Policy struct {
	DailyLimit         int      `json:"daily_limit"`      // 0 表示不限制
	MinMatchScore      float64  `json:"min_match_score"`  // 只对带 match_score 的职位生效
	BlockedCompanies   []string `json:"blocked_companies"`
	Paused             bool     `json:"paused"` // 全局熔断开关
	RemoteOnlyEnforced bool     `json:"remote_only_enforced"`
	UpdatedAt          string   `json:"updated_at"`
}

// PolicyUpdate 策略的部分更新，nil 字段表示保持原值
type PolicyUpdate struct {
	DailyLimit         *int      `json:"daily_limit,omitempty"`
	MinMatchScore      *float64  `json:"min_match_score,omitempty"`
	BlockedCompanies   *[]string `json:"blocked_companies,omitempty"`
	Paused             *bool     `json:"paused,omitempty"`
	RemoteOnlyEnforced *bool     `json:"remote_only_enforced,omitempty"`
}

// PolicyCheckResult 一次策略检查的结果，附带检查瞬间的策略快照以便审计
type PolicyCheckResult struct {
	Allowed        bool   `json:"allowed"`
	Reason         string `json:"reason"`
	PolicySnapshot Policy `json:"policy_snapshot"`
}

// QueueEntry 待投递队列中的一个职位描述符。
// 批处理器只消费不删除：处理过程不改写队列文件，只改写 Application 记录。
type QueueEntry struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Company    string   `json:"company"`
	MatchScore *float64 `json:"match_score,omitempty"`
	QueuedAt   string   `json:"queued_at"`
	Status     string   `json:"status"` // queued
}

// AuditEvent 审计事件，按 job_id 归档，只追加不修改
type AuditEvent struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	EventType string         `json:"event_type"` // snapshot | generation | policy_check | assembly | submission
	Step      string         `json:"step"`
	Details   map[string]any `json:"details"`
}
