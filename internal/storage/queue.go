package storage

import (
	"sync"

	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// queueEnvelope apply_queue.json 的顶层结构
type queueEnvelope struct {
	Queue []types.QueueEntry `json:"queue"`
}

// QueueStore 待投递队列存储。只追加，除非显式移除/重排；
// 批处理器消费时不改写队列文件。
type QueueStore struct {
	path string
	mu   sync.Mutex
}

// NewQueueStore 创建队列存储
func NewQueueStore(path string) *QueueStore {
	return &QueueStore{path: path}
}

// Add 将一批职位加入队列，按 ID 去重，返回实际新增数量
func (s *QueueStore) Add(entries []types.QueueEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.loadLocked()
	if err != nil {
		return 0, err
	}

	existing := make(map[string]bool, len(queue))
	for _, e := range queue {
		existing[e.ID] = true
	}

	added := 0
	for _, e := range entries {
		if existing[e.ID] {
			continue
		}
		e.QueuedAt = utils.NowISO()
		e.Status = "queued"
		queue = append(queue, e)
		existing[e.ID] = true
		added++
	}

	if err := WriteJSONFile(s.path, queueEnvelope{Queue: queue}); err != nil {
		return 0, err
	}
	return added, nil
}

// List 返回当前队列快照
func (s *QueueStore) List() ([]types.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *QueueStore) loadLocked() ([]types.QueueEntry, error) {
	var env queueEnvelope
	if err := ReadJSONFile(s.path, &env); err != nil {
		return nil, err
	}
	return env.Queue, nil
}

// Remove 从队列中移除指定职位，未找到返回 false
func (s *QueueStore) Remove(jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	kept := queue[:0]
	for _, e := range queue {
		if e.ID != jobID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(queue) {
		return false, nil
	}
	if err := WriteJSONFile(s.path, queueEnvelope{Queue: kept}); err != nil {
		return false, err
	}
	return true, nil
}

// Reorder 按给定 ID 顺序重排队列，未提及的条目保持原相对顺序追加在尾部
func (s *QueueStore) Reorder(jobIDs []string) ([]types.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]types.QueueEntry, len(queue))
	for _, e := range queue {
		byID[e.ID] = e
	}

	newQueue := make([]types.QueueEntry, 0, len(queue))
	seen := make(map[string]bool, len(jobIDs))
	for _, id := range jobIDs {
		if e, ok := byID[id]; ok && !seen[id] {
			newQueue = append(newQueue, e)
			seen[id] = true
		}
	}
	for _, e := range queue {
		if !seen[e.ID] {
			newQueue = append(newQueue, e)
		}
	}

	if err := WriteJSONFile(s.path, queueEnvelope{Queue: newQueue}); err != nil {
		return nil, err
	}
	return newQueue, nil
}
