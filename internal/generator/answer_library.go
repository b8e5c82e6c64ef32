package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"

	"auto-apply-go/internal/storage"
	"auto-apply-go/pkg/utils"
)

// QuestionCategory 标准申请问题与其常见变体
type QuestionCategory struct {
	Question string   `json:"question"`
	Variants []string `json:"variants"`
}

// CategoryOrder 标准问题类别的固定顺序,生成和展示都按这个顺序
var CategoryOrder = []string{
	"work_authorization",
	"availability",
	"relocation",
	"salary_expectations",
	"why_company",
	"strengths",
	"career_goals",
}

// QuestionCategories 标准问题库
var QuestionCategories = map[string]QuestionCategory{
	"work_authorization": {
		Question: "What is your work authorization status?",
		Variants: []string{
			"Are you authorized to work in the US?",
			"Do you require visa sponsorship?",
			"What is your work permit status?",
		},
	},
	"availability": {
		Question: "What is your availability/start date?",
		Variants: []string{
			"When can you start?",
			"What is your notice period?",
			"How soon can you join?",
		},
	},
	"relocation": {
		Question: "Are you willing to relocate?",
		Variants: []string{
			"Would you consider relocating for this position?",
			"Are you open to relocation?",
			"Can you relocate to our office location?",
		},
	},
	"salary_expectations": {
		Question: "What are your salary expectations?",
		Variants: []string{
			"What is your expected compensation?",
			"What salary range are you looking for?",
			"What are your compensation requirements?",
		},
	},
	"why_company": {
		Question: "Why do you want to work for this company?",
		Variants: []string{
			"Why are you interested in this role?",
			"What attracts you to our company?",
			"Why should we hire you?",
		},
	},
	"strengths": {
		Question: "What are your greatest strengths?",
		Variants: []string{
			"What do you consider your key strengths?",
			"What makes you a good candidate?",
		},
	},
	"career_goals": {
		Question: "What are your career goals?",
		Variants: []string{
			"Where do you see yourself in 5 years?",
			"What are your long-term career aspirations?",
		},
	},
}

// Answer 一条可复用的标准问题答案
type Answer struct {
	ID               string   `json:"id"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	QuestionVariants []string `json:"question_variants"`
	Answer           string   `json:"answer"`
	NeedsEditing     bool     `json:"needs_editing"`
	IsTemplate       bool     `json:"is_template"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

// AnswerGenerationError 答案生成失败
type AnswerGenerationError struct {
	Message string
	Err     error
}

func (e *AnswerGenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AnswerGenerationError) Unwrap() error { return e.Err }

type answerEnvelope struct {
	Answers []Answer `json:"answers"`
}

// AnswerLibrary 标准问题答案库。生成依赖学生档案,
// 持久化在 answer_library.json,按类别去重更新。
type AnswerLibrary struct {
	client *Client
	path   string
	mu     sync.Mutex
	logger *log.Logger
}

// NewAnswerLibrary 创建答案库
func NewAnswerLibrary(client *Client, path string, logger *log.Logger) *AnswerLibrary {
	if logger == nil {
		logger = log.Default()
	}
	return &AnswerLibrary{client: client, path: path, logger: logger}
}

// Generate 用 LLM 为标准问题生成答案。categories 为空时覆盖全部类别。
// 答案只能基于档案事实,无法回答的问题会打上 [EDIT] 前缀交还给用户。
func (al *AnswerLibrary) Generate(ctx context.Context, profile any, constraints map[string]any, categories []string) (map[string]Answer, error) {
	if len(categories) == 0 {
		categories = CategoryOrder
	}

	var questionLines []string
	for _, cat := range categories {
		if qc, ok := QuestionCategories[cat]; ok {
			questionLines = append(questionLines, fmt.Sprintf("- %s: %s", cat, qc.Question))
		}
	}

	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, &AnswerGenerationError{Message: "序列化档案失败", Err: err}
	}

	constraintsText := "None provided"
	if len(constraints) > 0 {
		b, _ := json.MarshalIndent(constraints, "", "  ")
		constraintsText = string(b)
	}

	prompt := fmt.Sprintf(`You are a career advisor helping a job applicant prepare answers for common application questions.

Generate professional, concise answers for the following questions based on the student's profile data.

RULES:
1. Use ONLY information from the provided profile - do NOT invent facts
2. Keep answers professional and concise (2-4 sentences each)
3. For "Why this company" - create a TEMPLATE with [COMPANY_NAME] and [ROLE] placeholders
4. If information is not available, provide a generic professional template that can be edited
5. Mark answers that need editing/personalization with "[EDIT]" prefix

Profile Data:
%s

Additional Constraints (if provided):
%s

Generate answers for these questions:
%s

Return a JSON object with question category as key and answer as value:
{
  "category_name": "The answer text"
}`, string(profileJSON), constraintsText, strings.Join(questionLines, "\n"))

	responseText, err := al.client.GenerateJSON(ctx, prompt,
		"You are a career advisor. Generate professional, factual answers. Return only valid JSON.",
		model.WithTemperature(0.3))
	if err != nil {
		return nil, &AnswerGenerationError{Message: "答案生成失败", Err: err}
	}

	rawAnswers := map[string]string{}
	if err := json.Unmarshal([]byte(ExtractJSON(responseText)), &rawAnswers); err != nil {
		al.logger.Printf("答案 JSON 解析失败,使用空结果: %v", err)
		rawAnswers = map[string]string{}
	}

	processed := make(map[string]Answer, len(categories))
	now := utils.NowISO()
	for _, category := range categories {
		qc, ok := QuestionCategories[category]
		if !ok {
			continue
		}
		answerText := rawAnswers[category]
		if answerText == "" {
			answerText = fmt.Sprintf("[EDIT] Please provide your response to: %s", qc.Question)
		}
		isTemplate := strings.Contains(answerText, "[COMPANY_NAME]") || strings.Contains(answerText, "[ROLE]")
		processed[category] = Answer{
			ID:               uuid.NewString(),
			Category:         category,
			Question:         qc.Question,
			QuestionVariants: qc.Variants,
			Answer:           answerText,
			NeedsEditing:     strings.HasPrefix(answerText, "[EDIT]") || isTemplate,
			IsTemplate:       isTemplate,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}

	al.logger.Printf("已生成 %d 条标准问题答案", len(processed))
	return processed, nil
}

// Save 把一批答案写入答案库,同类别的旧答案被覆盖
func (al *AnswerLibrary) Save(answers map[string]Answer) error {
	al.mu.Lock()
	defer al.mu.Unlock()

	env, err := al.loadLocked()
	if err != nil {
		return err
	}

	for category, answer := range answers {
		replaced := false
		for i, existing := range env.Answers {
			if existing.Category == category {
				answer.UpdatedAt = utils.NowISO()
				env.Answers[i] = answer
				replaced = true
				break
			}
		}
		if !replaced {
			env.Answers = append(env.Answers, answer)
		}
	}
	return storage.WriteJSONFile(al.path, env)
}

// GetAll 返回答案库全部内容
func (al *AnswerLibrary) GetAll() ([]Answer, error) {
	al.mu.Lock()
	defer al.mu.Unlock()
	env, err := al.loadLocked()
	if err != nil {
		return nil, err
	}
	return env.Answers, nil
}

// GetByCategory 按类别查答案,未找到返回 nil
func (al *AnswerLibrary) GetByCategory(category string) (*Answer, error) {
	al.mu.Lock()
	defer al.mu.Unlock()
	env, err := al.loadLocked()
	if err != nil {
		return nil, err
	}
	for i := range env.Answers {
		if env.Answers[i].Category == category {
			return &env.Answers[i], nil
		}
	}
	return nil, nil
}

// UpdateAnswer 修改指定答案的文本并清除待编辑标记
func (al *AnswerLibrary) UpdateAnswer(answerID, newText string) (*Answer, error) {
	al.mu.Lock()
	defer al.mu.Unlock()
	env, err := al.loadLocked()
	if err != nil {
		return nil, err
	}
	for i := range env.Answers {
		if env.Answers[i].ID == answerID {
			env.Answers[i].Answer = newText
			env.Answers[i].UpdatedAt = utils.NowISO()
			env.Answers[i].NeedsEditing = false
			if err := storage.WriteJSONFile(al.path, env); err != nil {
				return nil, err
			}
			return &env.Answers[i], nil
		}
	}
	return nil, nil
}

// DeleteAnswer 按 ID 删除答案,未找到返回 false
func (al *AnswerLibrary) DeleteAnswer(answerID string) (bool, error) {
	al.mu.Lock()
	defer al.mu.Unlock()
	env, err := al.loadLocked()
	if err != nil {
		return false, err
	}
	kept := env.Answers[:0]
	for _, a := range env.Answers {
		if a.ID != answerID {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(env.Answers) {
		return false, nil
	}
	env.Answers = kept
	if err := storage.WriteJSONFile(al.path, env); err != nil {
		return false, err
	}
	return true, nil
}

func (al *AnswerLibrary) loadLocked() (*answerEnvelope, error) {
	env := &answerEnvelope{}
	if err := storage.ReadJSONFile(al.path, env); err != nil {
		return nil, err
	}
	if env.Answers == nil {
		env.Answers = []Answer{}
	}
	return env, nil
}
