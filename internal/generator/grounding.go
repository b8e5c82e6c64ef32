package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"

	"auto-apply-go/internal/storage"
)

// groundedThreshold 判定内容可信的最低得分
const groundedThreshold = 70

// Verification 事实核查结果
type Verification struct {
	GroundedScore  int      `json:"grounded_score"`
	IsGrounded     bool     `json:"is_grounded"`
	Hallucinations []string `json:"hallucinations"`
	Reasoning      string   `json:"reasoning"`
}

// Verifier 用轻量模型核对生成内容是否被学生档案支撑,防止简历注水。
// 校验服务自身出错时放行,避免阻塞正常流程。
type Verifier struct {
	client  *Client
	profile *storage.ProfileStore
	logger  *log.Logger
}

// NewVerifier 创建事实核查器
func NewVerifier(client *Client, profile *storage.ProfileStore, logger *log.Logger) *Verifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Verifier{client: client, profile: profile, logger: logger}
}

// VerifyContent 核对一段生成文本。contextType 标注内容类型,
// 如 resume_bullet、cover_letter,仅用于提示词。
func (v *Verifier) VerifyContent(ctx context.Context, content string, contextType string) Verification {
	profile, err := v.profile.Load()
	if err != nil || profile == nil {
		v.logger.Printf("事实核查缺少学生档案,跳过检查")
		return Verification{
			GroundedScore:  100,
			IsGrounded:     true,
			Hallucinations: []string{},
			Reasoning:      "Profile not found, skipping verification.",
		}
	}

	evidence := map[string]any{
		"experience":     profile.Experience,
		"education":      profile.Education,
		"skills":         profile.Skills,
		"projects":       profile.Projects,
		"certifications": profile.Certifications,
	}
	evidenceJSON, _ := json.MarshalIndent(evidence, "", "  ")

	prompt := fmt.Sprintf(`You are a strict Fact-Checking Auditor. Your job is to verify if the text below is FULLY supported by the provided Student Evidence.

STUDENT EVIDENCE:
%s

TEXT TO VERIFY (%s):
"%s"

INSTRUCTIONS:
1. Check if every specific claim (numbers, company names, specific technologies, achievements) in the Text is directly supported by the Evidence.
2. Allow for minor rewording or summarization, but flag any NEW facts, metrics, or skills not present in the evidence.
3. If the text infers soft skills (e.g., "fast learner"), that is acceptable if not contradicted.
4. If a specific metric (e.g., "Increased revenue by 50%%") is in the text but NOT in the evidence, flag it as a Hallucination.

OUTPUT JSON ONLY:
{
    "score": <0-100 integer, where 100 is fully grounded>,
    "hallucinations": ["<list of specific claims that are unsupported>"],
    "reasoning": "<brief explanation of the score>"
}`, string(evidenceJSON), contextType, content)

	responseText, err := v.client.GenerateFastJSON(ctx, prompt, "You are a JSON-only outputting Fact Checker.", model.WithTemperature(0.0))
	if err != nil {
		v.logger.Printf("事实核查调用失败,放行: %v", err)
		return failOpen(err)
	}

	var result struct {
		Score          int      `json:"score"`
		Hallucinations []string `json:"hallucinations"`
		Reasoning      string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(ExtractJSON(responseText)), &result); err != nil {
		v.logger.Printf("事实核查响应解析失败,放行: %v", err)
		return failOpen(err)
	}

	if result.Hallucinations == nil {
		result.Hallucinations = []string{}
	}
	return Verification{
		GroundedScore:  result.Score,
		IsGrounded:     result.Score >= groundedThreshold,
		Hallucinations: result.Hallucinations,
		Reasoning:      result.Reasoning,
	}
}

func failOpen(err error) Verification {
	return Verification{
		GroundedScore:  100,
		IsGrounded:     true,
		Hallucinations: []string{},
		Reasoning:      fmt.Sprintf("Verification failed due to error: %v", err),
	}
}
