package storage

import (
	"sync"

	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// profileEnvelope student_profile.json 的顶层结构
type profileEnvelope struct {
	Profile *types.Profile `json:"profile"`
}

// ProfileStore 学生档案存储，单档案
type ProfileStore struct {
	path string
	mu   sync.Mutex
}

// NewProfileStore 创建档案存储
func NewProfileStore(path string) *ProfileStore {
	return &ProfileStore{path: path}
}

// Save 保存学生档案，补齐时间戳
func (s *ProfileStore) Save(profile types.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.UpdatedAt = utils.NowISO()
	if profile.CreatedAt == "" {
		profile.CreatedAt = profile.UpdatedAt
	}
	return WriteJSONFile(s.path, profileEnvelope{Profile: &profile})
}

// Load 加载学生档案，不存在时返回 nil
func (s *ProfileStore) Load() (*types.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var env profileEnvelope
	if err := ReadJSONFile(s.path, &env); err != nil {
		return nil, err
	}
	return env.Profile, nil
}
