package storage

import (
	"sync"

	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"

	"github.com/google/uuid"
)

// jobsEnvelope jobs.json 的顶层结构
type jobsEnvelope struct {
	Jobs      []types.Job `json:"jobs"`
	UpdatedAt string      `json:"updated_at,omitempty"`
}

// JobStore 职位存储。职位抓取后不可变，排序通道会整体覆盖写入打分结果。
type JobStore struct {
	path string
	mu   sync.Mutex
}

// NewJobStore 创建职位存储
func NewJobStore(path string) *JobStore {
	return &JobStore{path: path}
}

// SaveAll 覆盖保存整个职位列表，补齐缺失的 ID 和创建时间
func (s *JobStore) SaveAll(jobs []types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAllLocked(jobs)
}

func (s *JobStore) saveAllLocked(jobs []types.Job) error {
	for i := range jobs {
		if jobs[i].ID == "" {
			jobs[i].ID = uuid.NewString()
		}
		if jobs[i].CreatedAt == "" {
			jobs[i].CreatedAt = utils.NowISO()
		}
	}
	return WriteJSONFile(s.path, jobsEnvelope{Jobs: jobs, UpdatedAt: utils.NowISO()})
}

// Add 追加单个职位，返回其 ID
func (s *JobStore) Add(job types.Job) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.loadLocked()
	if err != nil {
		return "", err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = utils.NowISO()
	jobs = append(jobs, job)
	if err := s.saveAllLocked(jobs); err != nil {
		return "", err
	}
	return job.ID, nil
}

// LoadAll 加载全部职位
func (s *JobStore) LoadAll() ([]types.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *JobStore) loadLocked() ([]types.Job, error) {
	var env jobsEnvelope
	if err := ReadJSONFile(s.path, &env); err != nil {
		return nil, err
	}
	return env.Jobs, nil
}

// GetByID 按 ID 查找职位，未找到返回 nil
func (s *JobStore) GetByID(jobID string) (*types.Job, error) {
	jobs, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		if jobs[i].ID == jobID {
			return &jobs[i], nil
		}
	}
	return nil, nil
}

// Delete 按 ID 删除职位，未找到返回 false
func (s *JobStore) Delete(jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	kept := jobs[:0]
	for _, j := range jobs {
		if j.ID != jobID {
			kept = append(kept, j)
		}
	}
	if len(kept) == len(jobs) {
		return false, nil
	}
	if err := s.saveAllLocked(kept); err != nil {
		return false, err
	}
	return true, nil
}
