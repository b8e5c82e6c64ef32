package storage

import (
	"strings"
	"sync"

	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// bulletBankEnvelope bullet_bank.json 的顶层结构
type bulletBankEnvelope struct {
	Bullets   []types.Bullet `json:"bullets"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// BulletBankStore 简历要点库存储,支持按分类和来源检索
type BulletBankStore struct {
	path string
	mu   sync.Mutex
}

// NewBulletBankStore 创建要点库存储
func NewBulletBankStore(path string) *BulletBankStore {
	return &BulletBankStore{path: path}
}

// Save 追加一批要点并盖上保存时间
func (s *BulletBankStore) Save(bullets []types.Bullet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadLocked()
	if err != nil {
		return err
	}
	now := utils.NowISO()
	for i := range bullets {
		bullets[i].SavedAt = now
	}
	return s.saveAllLocked(append(existing, bullets...))
}

// LoadAll 加载全部要点
func (s *BulletBankStore) LoadAll() ([]types.Bullet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// ByCategory 按分类筛选
func (s *BulletBankStore) ByCategory(category string) ([]types.Bullet, error) {
	all, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	out := make([]types.Bullet, 0)
	for _, b := range all {
		if strings.EqualFold(b.Category, category) {
			out = append(out, b)
		}
	}
	return out, nil
}

// BySource 按来源名做子串筛选
func (s *BulletBankStore) BySource(source string) ([]types.Bullet, error) {
	all, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(source))
	out := make([]types.Bullet, 0)
	for _, b := range all {
		if needle != "" && strings.Contains(strings.ToLower(b.SourceName), needle) {
			out = append(out, b)
		}
	}
	return out, nil
}

// GetByID 按 ID 查找,找不到返回 nil
func (s *BulletBankStore) GetByID(id string) (*types.Bullet, error) {
	all, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

// Delete 删除单条要点,返回是否确实删掉了
func (s *BulletBankStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	kept := make([]types.Bullet, 0, len(all))
	deleted := false
	for _, b := range all {
		if b.ID == id {
			deleted = true
			continue
		}
		kept = append(kept, b)
	}
	if !deleted {
		return false, nil
	}
	return true, s.saveAllLocked(kept)
}

// Clear 清空要点库
func (s *BulletBankStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAllLocked(nil)
}

// Stats 统计要点库概览
func (s *BulletBankStore) Stats() (types.BulletStats, error) {
	all, err := s.LoadAll()
	if err != nil {
		return types.BulletStats{}, err
	}
	stats := types.BulletStats{
		Total:        len(all),
		ByCategory:   map[string]int{},
		BySourceType: map[string]int{},
	}
	for _, b := range all {
		stats.ByCategory[b.Category]++
		stats.BySourceType[b.SourceType]++
		if b.HasMetrics {
			stats.WithMetrics++
		}
		if b.Grounded {
			stats.Grounded++
		}
	}
	return stats, nil
}

func (s *BulletBankStore) loadLocked() ([]types.Bullet, error) {
	var env bulletBankEnvelope
	if err := ReadJSONFile(s.path, &env); err != nil {
		return nil, err
	}
	return env.Bullets, nil
}

func (s *BulletBankStore) saveAllLocked(bullets []types.Bullet) error {
	if bullets == nil {
		bullets = []types.Bullet{}
	}
	return WriteJSONFile(s.path, bulletBankEnvelope{Bullets: bullets, UpdatedAt: utils.NowISO()})
}
