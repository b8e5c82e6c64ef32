package storage

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// proofPackEnvelope proof_pack.json 的顶层结构
type proofPackEnvelope struct {
	ProofPacks []types.ProofPack `json:"proof_packs"`
	UpdatedAt  string            `json:"updated_at,omitempty"`
}

// ProofPackStore 证明材料包存储。历次生成全部保留,按创建时间取最新一份对外生效。
type ProofPackStore struct {
	path string
	mu   sync.Mutex
}

// NewProofPackStore 创建证明材料包存储
func NewProofPackStore(path string) *ProofPackStore {
	return &ProofPackStore{path: path}
}

// Save 追加一份新的材料包,返回生成的 ID
func (s *ProofPackStore) Save(items []types.ProofPackItem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var env proofPackEnvelope
	if err := ReadJSONFile(s.path, &env); err != nil {
		return "", err
	}

	pack := types.ProofPack{
		ID:        uuid.NewString(),
		CreatedAt: utils.NowISO(),
		Items:     items,
	}
	env.ProofPacks = append(env.ProofPacks, pack)
	env.UpdatedAt = utils.NowISO()
	if err := WriteJSONFile(s.path, env); err != nil {
		return "", err
	}
	return pack.ID, nil
}

// Latest 返回最近生成的材料包,没有时返回 nil
func (s *ProofPackStore) Latest() (*types.ProofPack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var env proofPackEnvelope
	if err := ReadJSONFile(s.path, &env); err != nil {
		return nil, err
	}
	if len(env.ProofPacks) == 0 {
		return nil, nil
	}
	packs := env.ProofPacks
	sort.SliceStable(packs, func(i, j int) bool {
		return packs[i].CreatedAt > packs[j].CreatedAt
	})
	latest := packs[0]
	return &latest, nil
}
