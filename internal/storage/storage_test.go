package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// TestJobStoreAddAndGet 验证职位的新增、查询与删除
func TestJobStoreAddAndGet(t *testing.T) {
	store := NewJobStore(filepath.Join(t.TempDir(), "jobs.json"))

	id, err := store.Add(types.Job{Title: "Backend Engineer", Company: "Acme"})
	require.NoError(t, err, "新增职位不应出错")
	require.NotEmpty(t, id, "新增职位应生成 ID")

	job, err := store.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, job, "应能按 ID 查到刚写入的职位")
	assert.Equal(t, "Acme", job.Company)
	assert.NotEmpty(t, job.CreatedAt, "应自动填充创建时间")

	// 不存在的 ID 返回 nil 而非错误
	missing, err := store.GetByID("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, missing)

	ok, err := store.Delete(id)
	require.NoError(t, err)
	assert.True(t, ok, "删除存在的职位应返回 true")
	ok, err = store.Delete(id)
	require.NoError(t, err)
	assert.False(t, ok, "重复删除应返回 false")
}

// TestApplicationStoreSaveAndUpdate 验证申请记录的保存与部分更新
func TestApplicationStoreSaveAndUpdate(t *testing.T) {
	store := NewApplicationStore(filepath.Join(t.TempDir(), "applications.json"))

	id, err := store.Save(types.Application{JobID: "job-1", CompanyName: "Acme", JobTitle: "SRE"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	app, err := store.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, types.StatusPending, app.Status, "未指定状态时应默认 pending")

	ok, err := store.Update(id, ApplicationUpdate{
		Status: utils.StringPtr(types.StatusSubmitted),
		Notes:  utils.StringPtr("Submitted successfully on attempt 1."),
	})
	require.NoError(t, err)
	require.True(t, ok)

	app, err = store.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSubmitted, app.Status)
	assert.Equal(t, "Submitted successfully on attempt 1.", app.Notes)
	assert.NotEmpty(t, app.UpdatedAt, "更新后应刷新 updated_at")

	ok, err = store.Update("missing", ApplicationUpdate{Status: utils.StringPtr(types.StatusFailed)})
	require.NoError(t, err)
	assert.False(t, ok, "更新不存在的记录应返回 false")
}

// TestApplicationStoreCountToday 验证按 UTC 日期前缀统计当日投递数
func TestApplicationStoreCountToday(t *testing.T) {
	store := NewApplicationStore(filepath.Join(t.TempDir(), "applications.json"))

	// 今天投递成功的记录,按 applied_at 计数
	id1, err := store.Save(types.Application{JobID: "j1", Status: types.StatusSubmitted})
	require.NoError(t, err)
	_, err = store.Update(id1, ApplicationUpdate{AppliedAt: utils.StringPtr(utils.NowISO())})
	require.NoError(t, err)

	// 没有 applied_at 时回退到 created_at
	_, err = store.Save(types.Application{JobID: "j2", Status: types.StatusFailed})
	require.NoError(t, err)

	// 历史记录不计入今日
	id3, err := store.Save(types.Application{JobID: "j3", Status: types.StatusSubmitted})
	require.NoError(t, err)
	_, err = store.Update(id3, ApplicationUpdate{AppliedAt: utils.StringPtr("2020-01-01T10:00:00Z")})
	require.NoError(t, err)

	count, err := store.CountToday()
	require.NoError(t, err)
	// id3 的 applied_at 是 2020 年,但 created_at 不参与(有 applied_at 时以其为准)
	assert.Equal(t, 2, count, "今日投递计数与预期不符")
}

// TestApplicationStoreFindReadyForSubmission 验证查找可投递的申请包
func TestApplicationStoreFindReadyForSubmission(t *testing.T) {
	store := NewApplicationStore(filepath.Join(t.TempDir(), "applications.json"))

	// 无记录时返回 nil
	app, err := store.FindReadyForSubmission("j1")
	require.NoError(t, err)
	assert.Nil(t, app)

	// assembled 状态优先
	_, err = store.Save(types.Application{JobID: "j1", Status: types.StatusFailed, Package: &types.Package{JobID: "j1"}})
	require.NoError(t, err)
	id2, err := store.Save(types.Application{JobID: "j1", Status: types.StatusAssembled, Package: &types.Package{JobID: "j1"}})
	require.NoError(t, err)

	app, err = store.FindReadyForSubmission("j1")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, id2, app.ID, "应优先返回 assembled 状态的申请")
}

// TestProfileStoreSaveAndLoad 验证档案的写入与读取
func TestProfileStoreSaveAndLoad(t *testing.T) {
	store := NewProfileStore(filepath.Join(t.TempDir(), "student_profile.json"))

	// 未保存前读取返回 nil
	p, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, p, "尚无档案时应返回 nil")

	err = store.Save(types.Profile{Name: "Wang Lei", Email: "wang@example.com", Skills: []string{"Go", "Python"}})
	require.NoError(t, err)

	p, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Wang Lei", p.Name)
	assert.NotEmpty(t, p.UpdatedAt, "保存时应打上更新时间戳")
}

// TestQueueStoreAddDedupAndReorder 验证队列去重、移除与重排
func TestQueueStoreAddDedupAndReorder(t *testing.T) {
	store := NewQueueStore(filepath.Join(t.TempDir(), "apply_queue.json"))

	added, err := store.Add([]types.QueueEntry{
		{ID: "a", Title: "Dev A", Company: "X"},
		{ID: "b", Title: "Dev B", Company: "Y"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// 重复 ID 不会再次入队
	added, err = store.Add([]types.QueueEntry{
		{ID: "a", Title: "Dev A", Company: "X"},
		{ID: "c", Title: "Dev C", Company: "Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added, "重复职位不应重复入队")

	queue, err := store.List()
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, "queued", queue[0].Status)
	assert.NotEmpty(t, queue[0].QueuedAt)

	// 重排:未提及的条目追加在尾部
	reordered, err := store.Reorder([]string{"c", "a"})
	require.NoError(t, err)
	require.Len(t, reordered, 3)
	assert.Equal(t, "c", reordered[0].ID)
	assert.Equal(t, "a", reordered[1].ID)
	assert.Equal(t, "b", reordered[2].ID, "未指定顺序的条目应保留在尾部")

	ok, err := store.Remove("b")
	require.NoError(t, err)
	assert.True(t, ok)
	queue, err = store.List()
	require.NoError(t, err)
	assert.Len(t, queue, 2)
}

// TestStorageAggregate 验证聚合存储的初始化
func TestStorageAggregate(t *testing.T) {
	s := NewStorage(t.TempDir())
	require.NotNil(t, s.Jobs)
	require.NotNil(t, s.Applications)
	require.NotNil(t, s.Profile)
	require.NotNil(t, s.Queue)
}
