package constants

import "time"

const (
	// 数据目录下各实体的存储文件名
	ProfileFile       = "student_profile.json"
	JobsFile          = "jobs.json"
	ApplicationsFile  = "applications.json"
	ApplyQueueFile    = "apply_queue.json"
	PolicyFile        = "apply_policy.json"
	AuditLogFile      = "audit_logs.json"
	AnswerLibraryFile = "answer_library.json"
	ProofPackFile     = "proof_pack.json"
	BulletBankFile    = "bullet_bank.json"

	// 审计事件类型
	AuditEventSnapshot    = "snapshot"
	AuditEventGeneration  = "generation"
	AuditEventPolicyCheck = "policy_check"
	AuditEventAssembly    = "assembly"
	AuditEventSubmission  = "submission"

	// 批处理默认节奏：每个职位之间的固定间隔，对外部门户的限速礼貌
	DefaultBatchPacing = 5 * time.Second

	// 投递客户端默认参数
	DefaultSubmitMaxAttempts = 3
	DefaultSubmitTimeout     = 10 * time.Second

	// 批处理状态日志环形缓冲上限
	BatchLogCap = 100
)
