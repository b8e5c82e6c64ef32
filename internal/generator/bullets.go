package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"

	"auto-apply-go/internal/types"
)

// BulletError 要点生成失败
type BulletError struct {
	Message string
	Err     error
}

func (e *BulletError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BulletError) Unwrap() error { return e.Err }

// bulletCategories 要点分类的关键词表,按声明顺序匹配,先命中先得
var bulletCategories = []struct {
	name     string
	keywords []string
}{
	{"backend", []string{"api", "server", "database", "sql", "microservice", "backend", "rest", "grpc"}},
	{"frontend", []string{"react", "vue", "ui", "css", "frontend", "web app", "interface"}},
	{"ml", []string{"model", "machine learning", "ml", "neural", "training", "llm", "nlp"}},
	{"data", []string{"data", "etl", "pipeline", "analytics", "spark", "warehouse"}},
	{"mobile", []string{"ios", "android", "mobile", "flutter", "swift"}},
	{"devops", []string{"docker", "kubernetes", "ci/cd", "deploy", "aws", "cloud", "infrastructure"}},
	{"leadership", []string{"led", "mentored", "managed", "organized", "coordinated"}},
	{"collaboration", []string{"team", "collaborated", "cross-functional", "partnered"}},
}

// BulletGenerator 把学生的经历和项目提炼为量化简历要点。
// 每条要点都要能追溯到档案中的来源,追溯不到的标记为未锚定并告警。
type BulletGenerator struct {
	client *Client
	logger *log.Logger
}

// NewBulletGenerator 创建要点生成器
func NewBulletGenerator(client *Client, logger *log.Logger) *BulletGenerator {
	if logger == nil {
		logger = log.Default()
	}
	return &BulletGenerator{client: client, logger: logger}
}

// Generate 从档案生成分类后的要点列表
func (g *BulletGenerator) Generate(ctx context.Context, profile *types.Profile) ([]types.Bullet, error) {
	if profile == nil {
		return nil, &BulletError{Message: "学生档案不能为空"}
	}
	if len(profile.Experience) == 0 && len(profile.Projects) == 0 {
		return nil, &BulletError{Message: "档案至少需要一段经历或一个项目才能生成要点"}
	}

	experienceJSON, _ := json.MarshalIndent(profile.Experience, "", "  ")
	projectsJSON, _ := json.MarshalIndent(profile.Projects, "", "  ")
	skillsJSON, _ := json.Marshal(profile.Skills)

	prompt := fmt.Sprintf(`Generate strong, quantified resume bullet points from this student's background.

EXPERIENCE:
%s

PROJECTS:
%s

SKILLS: %s

Return a JSON array of bullet objects:
[
  {
    "bullet": "The bullet text, action verb first, quantified where possible",
    "source_type": "experience" | "project",
    "source_name": "The company or project this bullet comes from",
    "technologies": ["tech1", "tech2"],
    "has_metrics": true
  }
]

Rules:
1. Every bullet must be traceable to a listed experience or project. NEVER invent accomplishments.
2. Use strong action verbs and concrete numbers when the source data contains them.
3. Do not add metrics that are not present in the source data.
4. Produce 5 to 15 bullets.`,
		string(experienceJSON), string(projectsJSON), string(skillsJSON))

	responseText, err := g.client.GenerateJSON(ctx, prompt,
		"You are an expert resume writer. Return ONLY valid JSON.",
		model.WithTemperature(0.3))
	if err != nil {
		return nil, &BulletError{Message: "生成要点失败", Err: err}
	}

	var bullets []types.Bullet
	if err := json.Unmarshal([]byte(ExtractJSON(responseText)), &bullets); err != nil {
		return nil, &BulletError{Message: "要点 JSON 解析失败", Err: err}
	}

	valid := make([]types.Bullet, 0, len(bullets))
	for _, b := range bullets {
		if strings.TrimSpace(b.Text) == "" {
			continue
		}
		if b.Technologies == nil {
			b.Technologies = []string{}
		}
		b.ID = uuid.NewString()
		b.Category = categorizeBullet(b.Text)
		b.Grounded = g.sourceInProfile(b.SourceName, profile)
		valid = append(valid, b)
	}
	if len(valid) == 0 {
		return nil, &BulletError{Message: "未生成任何有效要点"}
	}
	return valid, nil
}

// sourceInProfile 核对来源名能否在经历或项目中找到,双向子串匹配
func (g *BulletGenerator) sourceInProfile(source string, profile *types.Profile) bool {
	if strings.TrimSpace(source) == "" {
		return false
	}
	for _, exp := range profile.Experience {
		if looseMatch(source, exp.Company) || looseMatch(source, exp.Title) {
			return true
		}
	}
	for _, p := range profile.Projects {
		if looseMatch(source, p.Name) {
			return true
		}
	}
	g.logger.Printf("要点来源 %q 在档案中找不到", source)
	return false
}

func looseMatch(a, b string) bool {
	la, lb := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// categorizeBullet 按关键词表给要点归类,无命中归入 general
func categorizeBullet(text string) string {
	lower := strings.ToLower(text)
	for _, cat := range bulletCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.name
			}
		}
	}
	return "general"
}
