package storage

import (
	"path/filepath"

	"auto-apply-go/internal/constants"
)

// Storage 聚合所有 JSON 文件存储,统一由数据目录初始化
type Storage struct {
	Jobs         *JobStore
	Applications *ApplicationStore
	Profile      *ProfileStore
	Queue        *QueueStore
	ProofPacks   *ProofPackStore
	Bullets      *BulletBankStore
}

// NewStorage 基于数据目录创建全部存储实例
func NewStorage(dataDir string) *Storage {
	return &Storage{
		Jobs:         NewJobStore(filepath.Join(dataDir, constants.JobsFile)),
		Applications: NewApplicationStore(filepath.Join(dataDir, constants.ApplicationsFile)),
		Profile:      NewProfileStore(filepath.Join(dataDir, constants.ProfileFile)),
		Queue:        NewQueueStore(filepath.Join(dataDir, constants.ApplyQueueFile)),
		ProofPacks:   NewProofPackStore(filepath.Join(dataDir, constants.ProofPackFile)),
		Bullets:      NewBulletBankStore(filepath.Join(dataDir, constants.BulletBankFile)),
	}
}
