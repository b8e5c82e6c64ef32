package types

// ProofPackItem 证明材料包中的一条可验证成果，指向学生真实存在的链接
type ProofPackItem struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	URL                string   `json:"url"`
	Category           string   `json:"category"` // Code | Demo | Writing | Credential | Profile
	Description        string   `json:"description"`
	RelatedSkills      []string `json:"related_skills"`
	RelatedProjectName string   `json:"related_project_name,omitempty"`
	CreatedAt          string   `json:"created_at"`
}

// ProofPack 一次生成的证明材料包，最新一份对外生效
type ProofPack struct {
	ID        string          `json:"id"`
	CreatedAt string          `json:"created_at"`
	Items     []ProofPackItem `json:"items"`
}

// Bullet 简历要点库中的一条量化要点
type Bullet struct {
	ID           string   `json:"id"`
	Text         string   `json:"bullet"`
	SourceType   string   `json:"source_type"` // experience | project
	SourceName   string   `json:"source_name"`
	Technologies []string `json:"technologies"`
	HasMetrics   bool     `json:"has_metrics"`
	Category     string   `json:"category"`
	Grounded     bool     `json:"grounded"`
	SavedAt      string   `json:"saved_at,omitempty"`
}

// BulletStats 要点库的统计概览
type BulletStats struct {
	Total        int            `json:"total_bullets"`
	ByCategory   map[string]int `json:"by_category"`
	BySourceType map[string]int `json:"by_source_type"`
	WithMetrics  int            `json:"with_metrics"`
	Grounded     int            `json:"grounded"`
}
