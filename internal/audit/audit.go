package audit

import (
	"log"
	"sync"

	"github.com/gofrs/uuid/v5"

	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// auditEnvelope audit_logs.json 的顶层结构,按职位 ID 分组存放事件
type auditEnvelope map[string][]types.AuditEvent

// Trail 审计追踪。记录申请流水线各阶段的事件,
// 写入失败只打日志,绝不影响主流程。
type Trail struct {
	path   string
	mu     sync.Mutex
	logger *log.Logger
}

// NewTrail 创建审计追踪实例
func NewTrail(path string, logger *log.Logger) *Trail {
	return &Trail{path: path, logger: logger}
}

// Log 追加一条审计事件。任何错误都被吞掉,只留日志。
func (t *Trail) Log(jobID, eventType, step string, details map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	env, err := t.loadLocked()
	if err != nil {
		t.logger.Printf("审计日志读取失败 job_id=%s: %v", jobID, err)
		return
	}

	event := types.AuditEvent{
		Timestamp: utils.NowISO(),
		EventType: eventType,
		Step:      step,
		Details:   details,
	}
	if id, err := uuid.NewV7(); err == nil {
		event.ID = id.String()
	}

	env[jobID] = append(env[jobID], event)

	if err := storage.WriteJSONFile(t.path, env); err != nil {
		t.logger.Printf("审计日志写入失败 job_id=%s: %v", jobID, err)
	}
}

// GetTrail 按时间顺序返回指定职位的完整审计记录,没有记录时返回空切片
func (t *Trail) GetTrail(jobID string) ([]types.AuditEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	env, err := t.loadLocked()
	if err != nil {
		return nil, err
	}
	events := env[jobID]
	if events == nil {
		events = []types.AuditEvent{}
	}
	return events, nil
}

func (t *Trail) loadLocked() (auditEnvelope, error) {
	env := auditEnvelope{}
	if err := storage.ReadJSONFile(t.path, &env); err != nil {
		return nil, err
	}
	if env == nil {
		env = auditEnvelope{}
	}
	return env, nil
}
