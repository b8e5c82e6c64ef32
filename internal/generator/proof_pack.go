package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"

	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// ProofPackError 证明材料包生成失败
type ProofPackError struct {
	Message string
	Err     error
}

func (e *ProofPackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProofPackError) Unwrap() error { return e.Err }

// ProofPackBuilder 从学生档案的真实链接整理证明材料包。
// 只允许引用档案里已有的链接,绝不编造 URL,
// 模型返回的无 URL 条目会被直接丢弃。
type ProofPackBuilder struct {
	client *Client
	logger *log.Logger
}

// NewProofPackBuilder 创建证明材料包生成器
func NewProofPackBuilder(client *Client, logger *log.Logger) *ProofPackBuilder {
	if logger == nil {
		logger = log.Default()
	}
	return &ProofPackBuilder{client: client, logger: logger}
}

// Build 根据档案生成证明材料包条目
func (b *ProofPackBuilder) Build(ctx context.Context, profile *types.Profile) ([]types.ProofPackItem, error) {
	if profile == nil {
		return nil, &ProofPackError{Message: "学生档案不能为空"}
	}

	links := map[string]string{
		"linkedin":  profile.Links.LinkedIn,
		"github":    profile.Links.GitHub,
		"portfolio": profile.Links.Portfolio,
	}
	linksJSON, _ := json.MarshalIndent(links, "", "  ")
	projectsJSON, _ := json.MarshalIndent(profile.Projects, "", "  ")
	skillsJSON, _ := json.Marshal(profile.Skills)
	certsJSON, _ := json.Marshal(profile.Certifications)

	prompt := fmt.Sprintf(`Curate a "proof pack" of verifiable artifacts for a student's job applications.

PROFILE LINKS:
%s

PROJECTS:
%s

SKILLS: %s
CERTIFICATIONS: %s

Return a JSON array of artifact objects:
[
  {
    "title": "Short artifact name",
    "url": "The artifact URL",
    "category": "Code" | "Demo" | "Writing" | "Credential" | "Profile",
    "description": "One sentence on what this proves",
    "related_skills": ["skill1", "skill2"],
    "related_project_name": "Project name if applicable"
  }
]

Rules:
1. Produce between 3 and 8 artifacts.
2. ONLY use URLs that appear in the profile data above. NEVER invent links.
3. Prefer project URLs and code links over generic profile pages.
4. Tie each artifact to the skills it demonstrates.`,
		string(linksJSON), string(projectsJSON), string(skillsJSON), string(certsJSON))

	responseText, err := b.client.GenerateJSON(ctx, prompt,
		"You are a careful career assistant curating verifiable evidence. Return ONLY valid JSON.",
		model.WithTemperature(0.2))
	if err != nil {
		return nil, &ProofPackError{Message: "生成证明材料包失败", Err: err}
	}

	var items []types.ProofPackItem
	if err := json.Unmarshal([]byte(ExtractJSON(responseText)), &items); err != nil {
		return nil, &ProofPackError{Message: "证明材料包 JSON 解析失败", Err: err}
	}

	// 规范化:没有 URL 的条目直接丢弃,缺省字段补默认值
	normalized := make([]types.ProofPackItem, 0, len(items))
	for _, item := range items {
		if item.URL == "" {
			b.logger.Printf("丢弃无 URL 的材料条目: %q", item.Title)
			continue
		}
		if item.Title == "" {
			item.Title = "Unnamed Artifact"
		}
		if item.Category == "" {
			item.Category = "General Artifact"
		}
		if item.Description == "" {
			item.Description = "No description provided"
		}
		if item.RelatedSkills == nil {
			item.RelatedSkills = []string{}
		}
		item.ID = uuid.NewString()
		item.CreatedAt = utils.NowISO()
		normalized = append(normalized, item)
	}
	return normalized, nil
}
