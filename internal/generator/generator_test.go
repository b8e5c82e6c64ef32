package generator

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-apply-go/internal/agent"
	"auto-apply-go/internal/constants"
	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/types"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testProfileStore(t *testing.T, profile *types.Profile) *storage.ProfileStore {
	t.Helper()
	store := storage.NewProfileStore(filepath.Join(t.TempDir(), constants.ProfileFile))
	if profile != nil {
		require.NoError(t, store.Save(*profile))
	}
	return store
}

var sampleProfile = types.Profile{
	Name:   "Wang Lei",
	Email:  "wang@example.com",
	Phone:  "13800138000",
	Skills: []string{"Go", "Python", "React", "SQL"},
	Experience: []types.Experience{
		{
			Company:          "Acme Labs",
			Title:            "Backend Intern",
			Duration:         "2024.06 - 2024.09",
			Responsibilities: []string{"Built a REST API in Go serving 1k QPS", "Wrote Python ETL scripts"},
		},
	},
	Projects: []types.Project{
		{Name: "ChatBoard", Description: "Realtime chat app", URL: "https://github.com/wanglei/chatboard"},
	},
}

var sampleJob = types.Job{
	ID:             "job-1",
	Title:          "Backend Engineer Intern",
	Company:        "TechCorp",
	Description:    "We use python and docker heavily.",
	SkillsRequired: []string{"Go", "Docker"},
	Requirements:   []string{"Experience building APIs"},
}

// TestExtractJSON 验证三种提取路径:代码块、括号配对、原样返回
func TestExtractJSON(t *testing.T) {
	// markdown 代码块
	assert.Equal(t, `{"a":1}`, ExtractJSON("Here you go:\n```json\n{\"a\":1}\n```"))
	// 无代码块时做括号配对
	assert.Equal(t, `{"a":{"b":2}}`, ExtractJSON(`The result is {"a":{"b":2}} as requested.`))
	// 数组
	assert.Equal(t, `[1,2,3]`, ExtractJSON("answer: [1,2,3] done"))
	// 字符串里的括号不干扰配对
	assert.Equal(t, `{"a":"}"}`, ExtractJSON(`{"a":"}"}`))
	// 无 JSON 时原样返回
	assert.Equal(t, "no json here", ExtractJSON("no json here"))
}

// TestClientGenerateText 验证文本生成与空响应报错
func TestClientGenerateText(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{Content: "hello"})
	client := NewClient(mock, nil, discardLogger())

	text, err := client.GenerateText(context.Background(), "hi", "system")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	empty := agent.NewMockChatModel(agent.MockResponse{Content: ""})
	client = NewClient(empty, nil, discardLogger())
	_, err = client.GenerateText(context.Background(), "hi", "")
	require.Error(t, err, "空响应应视为错误")
}

// TestVerifierGrounded 验证事实核查的阈值判定与无档案放行
func TestVerifierGrounded(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{
		Content: `{"score": 85, "hallucinations": [], "reasoning": "supported"}`,
	})
	client := NewClient(mock, mock, discardLogger())
	verifier := NewVerifier(client, testProfileStore(t, &sampleProfile), discardLogger())

	v := verifier.VerifyContent(context.Background(), "Built a REST API in Go", "resume_bullet")
	assert.True(t, v.IsGrounded)
	assert.Equal(t, 85, v.GroundedScore)

	// 低于 70 分判定为不可信
	mockLow := agent.NewMockChatModel(agent.MockResponse{
		Content: `{"score": 40, "hallucinations": ["Increased revenue by 50%"], "reasoning": "unsupported metric"}`,
	})
	verifier = NewVerifier(NewClient(mockLow, mockLow, discardLogger()), testProfileStore(t, &sampleProfile), discardLogger())
	v = verifier.VerifyContent(context.Background(), "Increased revenue by 50%", "resume_bullet")
	assert.False(t, v.IsGrounded)
	assert.NotEmpty(t, v.Hallucinations)

	// 无档案时放行
	verifier = NewVerifier(client, testProfileStore(t, nil), discardLogger())
	v = verifier.VerifyContent(context.Background(), "anything", "general")
	assert.True(t, v.IsGrounded, "无档案时应放行")
}

// TestResumeTailor 验证要点改写、事实核查回退与技能重排
func TestResumeTailor(t *testing.T) {
	// 改写调用与核查调用交替:改写1、核查1、改写2、核查2
	mock := agent.NewMockChatModel(
		agent.MockResponse{Content: "Built a REST API in Go and Docker serving 1k QPS"},
		agent.MockResponse{Content: `{"score": 90, "hallucinations": [], "reasoning": "ok"}`},
		agent.MockResponse{Content: "Wrote Python ETL scripts with invented Spark cluster"},
		agent.MockResponse{Content: `{"score": 30, "hallucinations": ["Spark cluster"], "reasoning": "not in profile"}`},
	)
	client := NewClient(mock, mock, discardLogger())
	verifier := NewVerifier(client, testProfileStore(t, &sampleProfile), discardLogger())
	tailor := NewResumeTailor(client, verifier, discardLogger())

	resume, err := tailor.Tailor(context.Background(), &sampleJob, &sampleProfile)
	require.NoError(t, err)
	require.NotNil(t, resume)

	assert.Equal(t, "job-1", resume.JobID)
	require.Len(t, resume.Experiences, 1)
	bullets := resume.Experiences[0].TailoredBullets
	require.Len(t, bullets, 2)
	assert.Equal(t, "Built a REST API in Go and Docker serving 1k QPS", bullets[0], "通过核查的改写应被采用")
	assert.Equal(t, "Wrote Python ETL scripts", bullets[1], "未通过核查的改写应回退原文")

	require.Len(t, resume.Changes, 1, "只有被采用的改写进入变更记录")
	assert.Equal(t, "Keyword optimization", resume.Changes[0].Reason)

	// 职位要求 Go/Docker,描述含 python/docker,技能表中匹配的排前
	assert.Contains(t, resume.KeywordsMatched, "Go")
	assert.Equal(t, "Go", resume.Skills[0], "匹配的技能应排在最前")

	// 缺失职位或档案时报错
	_, err = tailor.Tailor(context.Background(), nil, &sampleProfile)
	require.Error(t, err)
	_, err = tailor.Tailor(context.Background(), &sampleJob, nil)
	require.Error(t, err)
}

// TestCoverLetterWriter 验证求职信生成附带事实核查结果
func TestCoverLetterWriter(t *testing.T) {
	mock := agent.NewMockChatModel(
		agent.MockResponse{Content: "Dear Hiring Team,\n\nI am excited to apply..."},
		agent.MockResponse{Content: `{"score": 95, "hallucinations": [], "reasoning": "fine"}`},
	)
	client := NewClient(mock, mock, discardLogger())
	verifier := NewVerifier(client, testProfileStore(t, &sampleProfile), discardLogger())
	writer := NewCoverLetterWriter(client, verifier, discardLogger())

	result, err := writer.Generate(context.Background(), &sampleJob, &sampleProfile)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "Dear Hiring Team")
	assert.True(t, result.IsGrounded)
	assert.Equal(t, "job-1", result.JobID)
	assert.NotEmpty(t, result.GeneratedAt)
}

// TestEvidenceMapper 验证映射解析、ID 填充与坏 JSON 降级
func TestEvidenceMapper(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{Content: `[
		{"requirement": "Experience building APIs", "evidence_type": "Bullet", "evidence_content": "Built a REST API in Go serving 1k QPS", "match_strength": "High", "reasoning": "direct match"},
		{"requirement": "Docker", "evidence_type": "None", "evidence_content": "", "match_strength": "Low", "reasoning": "no evidence"}
	]`})
	mapper := NewEvidenceMapper(NewClient(mock, mock, discardLogger()), discardLogger())

	items, err := mapper.Map(context.Background(), &sampleJob, &sampleProfile)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.NotEmpty(t, items[0].ID, "每条映射应分配 ID")
	assert.Equal(t, "High", items[0].MatchStrength)

	// 模型输出坏 JSON 时降级为空映射而不报错
	bad := agent.NewMockChatModel(agent.MockResponse{Content: "sorry, I cannot do that"})
	mapper = NewEvidenceMapper(NewClient(bad, bad, discardLogger()), discardLogger())
	items, err = mapper.Map(context.Background(), &sampleJob, &sampleProfile)
	require.NoError(t, err)
	assert.Empty(t, items)
}

// TestAnswerLibraryGenerateAndSave 验证答案生成、缺失类别兜底与按类别覆盖保存
func TestAnswerLibraryGenerateAndSave(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{Content: `{
		"work_authorization": "I am authorized to work in the US under OPT.",
		"why_company": "I admire [COMPANY_NAME] and the [ROLE] position aligns with my goals."
	}`})
	client := NewClient(mock, mock, discardLogger())
	lib := NewAnswerLibrary(client, filepath.Join(t.TempDir(), constants.AnswerLibraryFile), discardLogger())

	answers, err := lib.Generate(context.Background(), sampleProfile, nil, nil)
	require.NoError(t, err)
	require.Len(t, answers, len(CategoryOrder), "每个标准类别都应有答案")

	assert.False(t, answers["work_authorization"].NeedsEditing)
	assert.True(t, answers["why_company"].IsTemplate, "带占位符的答案应标记为模板")
	assert.True(t, answers["why_company"].NeedsEditing)
	assert.True(t, answers["availability"].NeedsEditing, "模型未覆盖的类别应给出 [EDIT] 兜底")
	assert.Contains(t, answers["availability"].Answer, "[EDIT]")

	require.NoError(t, lib.Save(answers))
	all, err := lib.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, len(CategoryOrder))

	// 同类别再次保存应覆盖而非追加
	require.NoError(t, lib.Save(map[string]Answer{"availability": answers["availability"]}))
	all, err = lib.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, len(CategoryOrder), "同类别答案应被覆盖")

	got, err := lib.GetByCategory("work_authorization")
	require.NoError(t, err)
	require.NotNil(t, got)

	updated, err := lib.UpdateAnswer(got.ID, "Updated answer text")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.False(t, updated.NeedsEditing)
	assert.Equal(t, "Updated answer text", updated.Answer)

	ok, err := lib.DeleteAnswer(got.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
