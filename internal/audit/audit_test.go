package audit

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-apply-go/internal/constants"
)

func newTestTrail(t *testing.T) *Trail {
	t.Helper()
	return NewTrail(filepath.Join(t.TempDir(), constants.AuditLogFile), log.New(io.Discard, "", 0))
}

// TestTrailLogAndGet 验证事件追加与按时间顺序读取
func TestTrailLogAndGet(t *testing.T) {
	trail := newTestTrail(t)

	trail.Log("job-1", constants.AuditEventSnapshot, "profile_snapshot", map[string]any{"name": "Wang Lei"})
	trail.Log("job-1", constants.AuditEventGeneration, "resume_tailoring", map[string]any{"model": "llama-3.3-70b-versatile"})
	trail.Log("job-2", constants.AuditEventPolicyCheck, "policy_check", map[string]any{"allowed": true})

	events, err := trail.GetTrail("job-1")
	require.NoError(t, err)
	require.Len(t, events, 2, "job-1 应有两条事件")
	assert.Equal(t, constants.AuditEventSnapshot, events[0].EventType, "事件应按写入顺序排列")
	assert.Equal(t, constants.AuditEventGeneration, events[1].EventType)
	assert.NotEmpty(t, events[0].ID, "事件应分配唯一 ID")
	assert.NotEmpty(t, events[0].Timestamp)

	other, err := trail.GetTrail("job-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

// TestTrailGetEmpty 验证无记录时返回空切片而非 nil
func TestTrailGetEmpty(t *testing.T) {
	trail := newTestTrail(t)

	events, err := trail.GetTrail("never-seen")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

// TestTrailLogSwallowsWriteErrors 验证写入失败不会中断调用方
func TestTrailLogSwallowsWriteErrors(t *testing.T) {
	dir := t.TempDir()
	// 把审计文件路径指向一个目录,制造写入失败
	badPath := filepath.Join(dir, "audit_as_dir")
	require.NoError(t, os.MkdirAll(badPath, 0o755))

	trail := NewTrail(badPath, log.New(io.Discard, "", 0))
	assert.NotPanics(t, func() {
		trail.Log("job-1", constants.AuditEventSubmission, "submission", nil)
	}, "审计写入失败不应 panic")
}
