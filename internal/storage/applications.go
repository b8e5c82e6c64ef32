package storage

import (
	"sort"
	"sync"

	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"

	"github.com/google/uuid"
)

// applicationsEnvelope applications.json 的顶层结构
type applicationsEnvelope struct {
	Applications []types.Application `json:"applications"`
	UpdatedAt    string              `json:"updated_at,omitempty"`
}

// ApplicationStore 投递记录存储
type ApplicationStore struct {
	path string
	mu   sync.Mutex
}

// NewApplicationStore 创建投递记录存储
func NewApplicationStore(path string) *ApplicationStore {
	return &ApplicationStore{path: path}
}

// Save 保存一条新的投递记录，返回生成的 ID
func (s *ApplicationStore) Save(app types.Application) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps, err := s.loadLocked()
	if err != nil {
		return "", err
	}

	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := utils.NowISO()
	app.CreatedAt = now
	app.UpdatedAt = now
	if app.Status == "" {
		app.Status = types.StatusPending
	}

	apps = append(apps, app)
	if err := s.saveAllLocked(apps); err != nil {
		return "", err
	}
	return app.ID, nil
}

// ApplicationUpdate 投递记录的部分更新，nil 字段保持原值
type ApplicationUpdate struct {
	Status            *string
	AppliedAt         *string
	SubmittedAt       *string
	Notes             *string
	Package           *types.Package
	SubmissionReceipt map[string]any
}

// Update 按 ID 更新投递记录并刷新 updated_at，记录不存在返回 false
func (s *ApplicationStore) Update(appID string, upd ApplicationUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps, err := s.loadLocked()
	if err != nil {
		return false, err
	}

	for i := range apps {
		if apps[i].ID != appID {
			continue
		}
		if upd.Status != nil {
			apps[i].Status = *upd.Status
		}
		if upd.AppliedAt != nil {
			apps[i].AppliedAt = *upd.AppliedAt
		}
		if upd.SubmittedAt != nil {
			apps[i].SubmittedAt = *upd.SubmittedAt
		}
		if upd.Notes != nil {
			apps[i].Notes = *upd.Notes
		}
		if upd.Package != nil {
			apps[i].Package = upd.Package
		}
		if upd.SubmissionReceipt != nil {
			apps[i].SubmissionReceipt = upd.SubmissionReceipt
		}
		apps[i].UpdatedAt = utils.NowISO()
		if err := s.saveAllLocked(apps); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// LoadAll 加载全部投递记录
func (s *ApplicationStore) LoadAll() ([]types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *ApplicationStore) loadLocked() ([]types.Application, error) {
	var env applicationsEnvelope
	if err := ReadJSONFile(s.path, &env); err != nil {
		return nil, err
	}
	return env.Applications, nil
}

func (s *ApplicationStore) saveAllLocked(apps []types.Application) error {
	return WriteJSONFile(s.path, applicationsEnvelope{Applications: apps, UpdatedAt: utils.NowISO()})
}

// GetByID 按 ID 查找投递记录，未找到返回 nil
func (s *ApplicationStore) GetByID(appID string) (*types.Application, error) {
	apps, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].ID == appID {
			return &apps[i], nil
		}
	}
	return nil, nil
}

// FindByJobID 返回某职位的全部投递记录
func (s *ApplicationStore) FindByJobID(jobID string) ([]types.Application, error) {
	apps, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	var matched []types.Application
	for _, a := range apps {
		if a.JobID == jobID {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

// FindReadyForSubmission 查找某职位最近一条可投递记录：
// 优先取 status=assembled 的；没有时回退到任何带材料包的记录（兼容迁移前的旧数据）。
// 按 updated_at 倒序取最新。
func (s *ApplicationStore) FindReadyForSubmission(jobID string) (*types.Application, error) {
	apps, err := s.FindByJobID(jobID)
	if err != nil {
		return nil, err
	}

	var candidates []types.Application
	for _, a := range apps {
		if a.Status == types.StatusAssembled {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		for _, a := range apps {
			if a.Package != nil {
				candidates = append(candidates, a)
			}
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].UpdatedAt > candidates[j].UpdatedAt
	})
	return &candidates[0], nil
}

// Delete 按 ID 删除投递记录。核心流程从不删除，删除属于外部管理动作。
func (s *ApplicationStore) Delete(appID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	kept := apps[:0]
	for _, a := range apps {
		if a.ID != appID {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(apps) {
		return false, nil
	}
	if err := s.saveAllLocked(kept); err != nil {
		return false, err
	}
	return true, nil
}

// CountToday 统计今天(UTC)的投递数量。
// 以 applied_at 为准，缺失时回退 created_at，按 YYYY-MM-DD 前缀匹配。
func (s *ApplicationStore) CountToday() (int, error) {
	apps, err := s.LoadAll()
	if err != nil {
		return 0, err
	}
	today := utils.TodayUTC()
	count := 0
	for _, a := range apps {
		date := a.AppliedAt
		if date == "" {
			date = a.CreatedAt
		}
		if len(date) >= len(today) && date[:len(today)] == today {
			count++
		}
	}
	return count, nil
}

// Stats 按状态统计投递数量
func (s *ApplicationStore) Stats() (map[string]int, error) {
	apps, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	stats := map[string]int{"total": len(apps)}
	for _, a := range apps {
		status := a.Status
		if status == "" {
			status = types.StatusPending
		}
		stats[status]++
	}
	return stats, nil
}
