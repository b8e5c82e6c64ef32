package types // 定义了自动投递系统的核心领域类型

// 应用状态常量。状态机：pending → assembled → submitted（终态）或 → failed（可重试终态）。
// assembled 只能由 Assembler 写入；submitted/failed 只能由 Submitter 写入。
// interviewing/offered/rejected/withdrawn 等状态由外部流程驱动，核心流程不写入。
const (
	StatusPending      = "pending"
	StatusAssembled    = "assembled"
	StatusSubmitted    = "submitted"
	StatusFailed       = "failed"
	StatusApplied      = "applied"
	StatusInterviewing = "interviewing"
	StatusOffered      = "offered"
	StatusRejected     = "rejected"
	StatusWithdrawn    = "withdrawn"
)

// TerminalStatuses 批处理器跳过这些状态的应用（幂等保护，避免重复投递）
var TerminalStatuses = map[string]bool{
	StatusApplied:      true,
	StatusSubmitted:    true,
	StatusInterviewing: true,
	StatusOffered:      true,
	StatusRejected:     true,
}

// Job 外部职位信息。抓取后不可变，由 JobStore 持有。
type Job struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Location        string   `json:"location"`
	JobType         string   `json:"job_type,omitempty"`         // full-time / internship / contract
	ExperienceLevel string   `json:"experience_level,omitempty"` // entry / mid / senior
	SalaryRange     string   `json:"salary_range,omitempty"`
	Description     string   `json:"description"`
	URL             string   `json:"url,omitempty"`
	Requirements    []string `json:"requirements,omitempty"`
	SkillsRequired  []string `json:"skills_required,omitempty"`
	IsRemote        bool     `json:"is_remote"`
	VisaSponsorship bool     `json:"visa_sponsorship,omitempty"`
	PostedDate      string   `json:"posted_date,omitempty"`

	// 排序通道的产物：未排序的职位没有分数（指针为 nil），策略检查对无分职位直接放行
	MatchScore     *float64    `json:"match_score,omitempty"`
	MatchReasoning string      `json:"match_reasoning,omitempty"`
	Scores         *RankScores `json:"scores,omitempty"`

	CreatedAt string `json:"created_at,omitempty"`
}

// RankScores 排序打分的分项得分
type RankScores struct {
	Skills      float64 `json:"skills"`
	Experience  float64 `json:"experience"`
	Constraints float64 `json:"constraints"`
}

// Application 跟踪对单个职位的一次投递尝试
type Application struct {
	ID          string `json:"id"`
	JobID       string `json:"job_id"`
	CompanyName string `json:"company_name"`
	JobTitle    string `json:"job_title"`
	JobURL      string `json:"job_url,omitempty"`
	Location    string `json:"location,omitempty"`
	Remote      bool   `json:"remote,omitempty"`
	Status      string `json:"status"`
	ResumeUsed  string `json:"resume_used,omitempty"`
	CoverLetter string `json:"cover_letter,omitempty"`
	Notes       string `json:"notes,omitempty"`

	// 时间戳统一使用 UTC ISO8601 字符串，空串表示未发生。
	// 日投递上限按 YYYY-MM-DD 前缀统计，依赖该格式。
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	AppliedAt   string `json:"applied_at,omitempty"`
	SubmittedAt string `json:"submitted_at,omitempty"`

	// 完整的投递材料包。失败不清空，重试复用最近一次打包结果。
	Package *Package `json:"application_package,omitempty"`

	// 投递成功后门户返回的回执
	SubmissionReceipt map[string]any `json:"submission_receipt,omitempty"`
}

// Package 一次投递的完整材料包（简历、求职信、证据映射、标准问题答案）
type Package struct {
	ID            string          `json:"id"`
	JobID         string          `json:"job_id"`
	JobTitle      string          `json:"job_title"`
	Company       string          `json:"company"`
	AssembledAt   string          `json:"assembled_at"`
	Artifacts     Artifacts       `json:"artifacts"`
	Profile       ProfileSnapshot `json:"profile_snapshot"`
	Status        string          `json:"status"` // ready_to_submit
	ApplicationID string          `json:"application_id,omitempty"`
}

// Artifacts 材料包中的四件生成产物
type Artifacts struct {
	Resume        *TailoredResume `json:"resume"`
	CoverLetter   string          `json:"cover_letter"`
	EvidenceMap   []EvidenceItem  `json:"evidence_map"`
	Questionnaire map[string]string `json:"questionnaire_answers"`
}

// ProfileSnapshot 脱敏后的档案快照，只保留联系方式相关字段
type ProfileSnapshot struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// TailoredResume 针对具体职位定制后的简历
type TailoredResume struct {
	JobID           string               `json:"job_id"`
	TailoredAt      string               `json:"tailored_at"`
	Experiences     []TailoredExperience `json:"experiences"`
	Skills          []string             `json:"skills"`
	KeywordsMatched []string             `json:"keywords_matched,omitempty"`
	Changes         []BulletChange       `json:"changes,omitempty"`
}

// TailoredExperience 单段经历及其定制后的要点
type TailoredExperience struct {
	Company         string   `json:"company"`
	Title           string   `json:"title"`
	Duration        string   `json:"duration,omitempty"`
	TailoredBullets []string `json:"tailored_bullets"`
}

// BulletChange 记录一条要点的改写痕迹，便于审计
type BulletChange struct {
	Original string `json:"original"`
	New      string `json:"new"`
	Reason   string `json:"reason"`
}

// EvidenceItem 职位要求与学生证据的一条映射
type EvidenceItem struct {
	ID              string `json:"id"`
	Requirement     string `json:"requirement"`
	EvidenceType    string `json:"evidence_type"` // Skill | Bullet | Proof | None
	EvidenceContent string `json:"evidence_content"`
	MatchStrength   string `json:"match_strength"` // High | Medium | Low
	Reasoning       string `json:"reasoning"`
}
