package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"

	"auto-apply-go/internal/types"
)

// EvidenceMapperError 证据映射失败
type EvidenceMapperError struct {
	Message string
	Err     error
}

func (e *EvidenceMapperError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *EvidenceMapperError) Unwrap() error { return e.Err }

// EvidenceMapper 把职位要求逐条映射到学生档案里的真实证据,
// 保证每个声明都有出处。
type EvidenceMapper struct {
	client *Client
	logger *log.Logger
}

// NewEvidenceMapper 创建证据映射器
func NewEvidenceMapper(client *Client, logger *log.Logger) *EvidenceMapper {
	if logger == nil {
		logger = log.Default()
	}
	return &EvidenceMapper{client: client, logger: logger}
}

// Map 生成职位要求到学生证据的透明映射。
// 模型返回无法解析时降级为空映射,不报错。
func (m *EvidenceMapper) Map(ctx context.Context, job *types.Job, profile *types.Profile) ([]types.EvidenceItem, error) {
	if job == nil {
		return nil, &EvidenceMapperError{Message: "职位不能为空"}
	}
	if profile == nil {
		return nil, &EvidenceMapperError{Message: "学生档案不能为空"}
	}

	requirements := append(append([]string{}, job.Requirements...), job.SkillsRequired...)
	requirementsJSON, _ := json.MarshalIndent(requirements, "", "  ")
	skillsJSON, _ := json.Marshal(profile.Skills)

	var bullets []string
	for _, exp := range profile.Experience {
		bullets = append(bullets, exp.Responsibilities...)
	}
	bulletsJSON, _ := json.MarshalIndent(bullets, "", "  ")

	var projects []string
	for _, p := range profile.Projects {
		projects = append(projects, fmt.Sprintf("%s: %s [URL: %s]", p.Name, p.Description, p.URL))
	}
	projectsJSON, _ := json.MarshalIndent(projects, "", "  ")

	desc := truncateRunes(job.Description, 500)

	prompt := fmt.Sprintf(`Analyze the job requirements and map them to the student's evidence.

JOB QUALIFICATIONS/REQUIREMENTS:
%s
(If generic, infer from Description: %s...)

STUDENT ARTIFACTS:
SKILLS: %s
BULLET POINTS (Experience): %s
PROOF ITEMS (Projects/Links): %s

TASK:
For each distinct requirement from the job, find the best matching evidence from the student's artifacts.

Return a JSON array of objects:
[
  {
    "requirement": "The specific job requirement",
    "evidence_type": "Skill" | "Bullet" | "Proof" | "None",
    "evidence_content": "The specific matching skill, bullet text, or proof item title",
    "match_strength": "High" | "Medium" | "Low",
    "reasoning": "Why this is a match"
  }
]

Rules:
1. Prioritize Proof Items and Bullets over just listing a Skill name.
2. If no direct match, look for transferable skills.
3. If truly no match, set evidence_type to "None".
4. Be transparent.`,
		string(requirementsJSON), desc,
		string(skillsJSON), string(bulletsJSON), string(projectsJSON))

	responseText, err := m.client.GenerateJSON(ctx, prompt,
		"You are a rigorous technical auditor mapping skills to evidence. Return ONLY valid JSON.",
		model.WithTemperature(0.2))
	if err != nil {
		return nil, &EvidenceMapperError{Message: "生成证据映射失败", Err: err}
	}

	var mapping []types.EvidenceItem
	if err := json.Unmarshal([]byte(ExtractJSON(responseText)), &mapping); err != nil {
		m.logger.Printf("证据映射 JSON 解析失败,返回空映射: %v", err)
		return []types.EvidenceItem{}, nil
	}

	for i := range mapping {
		mapping[i].ID = uuid.NewString()
	}
	return mapping, nil
}
