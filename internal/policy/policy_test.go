package policy

import (
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-apply-go/internal/constants"
	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

type policyFixture struct {
	engine       *Engine
	jobs         *storage.JobStore
	applications *storage.ApplicationStore
}

func newPolicyFixture(t *testing.T) *policyFixture {
	t.Helper()
	dir := t.TempDir()
	jobs := storage.NewJobStore(filepath.Join(dir, constants.JobsFile))
	apps := storage.NewApplicationStore(filepath.Join(dir, constants.ApplicationsFile))
	engine := NewEngine(filepath.Join(dir, constants.PolicyFile), jobs, apps, log.New(io.Discard, "", 0))
	return &policyFixture{engine: engine, jobs: jobs, applications: apps}
}

// TestPolicyDefaults 验证策略文件缺失时的默认值
func TestPolicyDefaults(t *testing.T) {
	f := newPolicyFixture(t)

	p := f.engine.Get()
	assert.Equal(t, 0, p.DailyLimit, "默认不限制每日投递数")
	assert.Equal(t, 60.0, p.MinMatchScore)
	assert.False(t, p.Paused)
	assert.False(t, p.RemoteOnlyEnforced)
	assert.NotNil(t, p.BlockedCompanies)
}

// TestPolicySetMergesPartialUpdate 验证部分更新只覆盖指定字段
func TestPolicySetMergesPartialUpdate(t *testing.T) {
	f := newPolicyFixture(t)

	p, err := f.engine.Set(types.PolicyUpdate{DailyLimit: utils.IntPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, p.DailyLimit)
	assert.Equal(t, 60.0, p.MinMatchScore, "未指定的字段应保持原值")
	assert.NotEmpty(t, p.UpdatedAt)

	p, err = f.engine.Set(types.PolicyUpdate{BlockedCompanies: &[]string{"EvilCorp"}})
	require.NoError(t, err)
	assert.Equal(t, 5, p.DailyLimit, "再次部分更新不应丢失之前的修改")
	assert.Equal(t, []string{"EvilCorp"}, p.BlockedCompanies)
}

// TestPolicyPauseAll 验证全局熔断开关
func TestPolicyPauseAll(t *testing.T) {
	f := newPolicyFixture(t)

	require.True(t, f.engine.PauseAll())
	assert.True(t, f.engine.Get().Paused)

	// 暂停后任何职位都被拦截,与其他字段无关
	result := f.engine.Check("job-1")
	assert.False(t, result.Allowed)
	assert.Equal(t, "Global policy PAUSED", result.Reason)
}

// TestPolicyCheckJobNotFound 验证职位不存在时的拦截
func TestPolicyCheckJobNotFound(t *testing.T) {
	f := newPolicyFixture(t)

	result := f.engine.Check("no-such-job")
	assert.False(t, result.Allowed)
	assert.Equal(t, "Job not found", result.Reason)
}

// TestPolicyCheckBlockedCompany 验证黑名单的双向大小写不敏感子串匹配
func TestPolicyCheckBlockedCompany(t *testing.T) {
	f := newPolicyFixture(t)

	id, err := f.jobs.Add(types.Job{Title: "Engineer", Company: "EvilCorp Industries"})
	require.NoError(t, err)
	_, err = f.engine.Set(types.PolicyUpdate{BlockedCompanies: &[]string{"evilcorp"}})
	require.NoError(t, err)

	result := f.engine.Check(id)
	assert.False(t, result.Allowed)
	assert.Contains(t, result.Reason, "blocked list")
	assert.Contains(t, result.Reason, "EvilCorp Industries")

	// 反向匹配:公司名是黑名单条目的子串
	id2, err := f.jobs.Add(types.Job{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)
	_, err = f.engine.Set(types.PolicyUpdate{BlockedCompanies: &[]string{"Acme Holdings Group"}})
	require.NoError(t, err)
	result = f.engine.Check(id2)
	assert.False(t, result.Allowed, "公司名是黑名单条目子串时也应拦截")
}

// TestPolicyCheckMatchScore 验证匹配分阈值与无分数职位的放行
func TestPolicyCheckMatchScore(t *testing.T) {
	f := newPolicyFixture(t)

	lowID, err := f.jobs.Add(types.Job{Title: "Engineer", Company: "Acme", MatchScore: utils.Float64Ptr(45)})
	require.NoError(t, err)
	result := f.engine.Check(lowID)
	assert.False(t, result.Allowed)
	assert.Equal(t, "Match score 45 below threshold 60", result.Reason)

	// 没有分数的职位直接通过该项检查
	unscoredID, err := f.jobs.Add(types.Job{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)
	result = f.engine.Check(unscoredID)
	assert.True(t, result.Allowed, "无匹配分的职位不应被阈值拦截")
	assert.Equal(t, "Policy checks passed", result.Reason)
}

// TestPolicyCheckRemoteEnforcement 验证远程限制的三种远程信号
func TestPolicyCheckRemoteEnforcement(t *testing.T) {
	f := newPolicyFixture(t)
	_, err := f.engine.Set(types.PolicyUpdate{RemoteOnlyEnforced: utils.BoolPtr(true)})
	require.NoError(t, err)

	onsiteID, err := f.jobs.Add(types.Job{Title: "Engineer", Company: "Acme", Location: "New York, NY"})
	require.NoError(t, err)
	result := f.engine.Check(onsiteID)
	assert.False(t, result.Allowed)
	assert.Equal(t, "Job is not Remote (Policy Enforced)", result.Reason)

	flagID, err := f.jobs.Add(types.Job{Title: "Engineer", Company: "Acme", Location: "NYC", IsRemote: true})
	require.NoError(t, err)
	assert.True(t, f.engine.Check(flagID).Allowed, "显式远程标记应放行")

	locID, err := f.jobs.Add(types.Job{Title: "Engineer", Company: "Acme", Location: "Remote - US"})
	require.NoError(t, err)
	assert.True(t, f.engine.Check(locID).Allowed, "location 带 remote 字样应放行")

	titleID, err := f.jobs.Add(types.Job{Title: "Remote Backend Engineer", Company: "Acme", Location: "NYC"})
	require.NoError(t, err)
	assert.True(t, f.engine.Check(titleID).Allowed, "title 带 remote 字样应放行")
}

// TestPolicyCheckDailyLimit 验证当日限额与 0 表示不限
func TestPolicyCheckDailyLimit(t *testing.T) {
	f := newPolicyFixture(t)

	id, err := f.jobs.Add(types.Job{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)

	// 今天已有两条申请记录
	for i := 0; i < 2; i++ {
		_, err := f.applications.Save(types.Application{JobID: "other", Status: types.StatusSubmitted})
		require.NoError(t, err)
	}

	_, err = f.engine.Set(types.PolicyUpdate{DailyLimit: utils.IntPtr(2)})
	require.NoError(t, err)
	result := f.engine.Check(id)
	assert.False(t, result.Allowed)
	assert.Equal(t, "Daily limit reached (2/2)", result.Reason)

	// 限额为 0 表示不限
	_, err = f.engine.Set(types.PolicyUpdate{DailyLimit: utils.IntPtr(0)})
	require.NoError(t, err)
	assert.True(t, f.engine.Check(id).Allowed)
}

// TestPolicyCheckOrdering 验证多重违规时按检查顺序上报第一条原因
func TestPolicyCheckOrdering(t *testing.T) {
	f := newPolicyFixture(t)

	// 同时触发黑名单和当日限额,应上报黑名单原因
	id, err := f.jobs.Add(types.Job{Title: "Engineer", Company: "EvilCorp"})
	require.NoError(t, err)
	_, err = f.applications.Save(types.Application{JobID: "other", Status: types.StatusSubmitted})
	require.NoError(t, err)
	_, err = f.engine.Set(types.PolicyUpdate{
		DailyLimit:       utils.IntPtr(1),
		BlockedCompanies: &[]string{"EvilCorp"},
	})
	require.NoError(t, err)

	result := f.engine.Check(id)
	assert.False(t, result.Allowed)
	assert.Contains(t, result.Reason, "blocked list", "黑名单先于当日限额检查")
}
