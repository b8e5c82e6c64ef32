package ranker

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-apply-go/internal/agent"
	"auto-apply-go/internal/generator"
	"auto-apply-go/internal/types"
)

func newTestRanker(responses ...agent.MockResponse) *Ranker {
	mock := agent.NewMockChatModel(responses...)
	logger := log.New(io.Discard, "", 0)
	return NewRanker(generator.NewClient(mock, mock, logger), logger)
}

// TestSkillScore 验证技能匹配率的计算
func TestSkillScore(t *testing.T) {
	// 无要求时满分
	assert.Equal(t, 100.0, skillScore(nil, []string{"Go"}))

	// 双向子串匹配:要求 "golang" 可被档案 "go" 命中
	score := skillScore([]string{"Go", "Docker"}, []string{"Go", "Python"})
	assert.Equal(t, 50.0, score, "两项要求命中一项应得 50 分")

	assert.Equal(t, 0.0, skillScore([]string{"Rust"}, []string{"Python"}))
}

// TestExperienceScore 验证职级目标年限的阶梯打分
func TestExperienceScore(t *testing.T) {
	assert.Equal(t, 100.0, experienceScore("Entry Level", 1), "应届目标与 1 年经验差距在容差内")
	assert.Equal(t, 75.0, experienceScore("Senior Engineer", 3), "差 2 年应得 75 分")
	assert.Equal(t, 50.0, experienceScore("Senior Engineer", 2))
	assert.Equal(t, 25.0, experienceScore("Senior Engineer", 0))
	assert.Equal(t, 100.0, experienceScore("unknown level", 1), "未识别职级按 0 年目标处理")
}

// TestConstraintScore 验证约束逐项均值与无约束满分
func TestConstraintScore(t *testing.T) {
	job := &types.Job{Location: "New York, NY", IsRemote: false, VisaSponsorship: true}

	// 无任何约束
	assert.Equal(t, 100.0, constraintScore(job, Constraints{}))

	// 远程要求未满足 + 签证要求满足,均值 50
	score := constraintScore(job, Constraints{RemoteOnly: true, VisaRequired: true})
	assert.Equal(t, 50.0, score)

	// 地点偏好命中
	score = constraintScore(job, Constraints{PreferredLocations: []string{"new york"}})
	assert.Equal(t, 100.0, score)

	// 远程职位跳过地点检查
	remote := &types.Job{Location: "Anywhere", IsRemote: true}
	assert.Equal(t, 100.0, constraintScore(remote, Constraints{PreferredLocations: []string{"Tokyo"}}))
}

// TestRankOrdersByScoreAndAddsReasoning 验证加权排序与头部职位的匹配理由
func TestRankOrdersByScoreAndAddsReasoning(t *testing.T) {
	r := newTestRanker(agent.MockResponse{Content: "Strong overlap in Go and Docker. The entry level fits the candidate."})

	profile := &types.Profile{
		Skills: []string{"Go", "Docker"},
		Experience: []types.Experience{
			{Company: "Acme", Title: "Intern"},
		},
	}
	jobs := []types.Job{
		{ID: "low", Title: "Senior Rust Engineer", ExperienceLevel: "Senior", SkillsRequired: []string{"Rust"}},
		{ID: "high", Title: "Backend Intern", ExperienceLevel: "Entry", SkillsRequired: []string{"Go", "Docker"}},
	}

	ranked := r.Rank(context.Background(), jobs, profile, Constraints{})
	require.Len(t, ranked, 2)

	assert.Equal(t, "high", ranked[0].ID, "高分职位应排在最前")
	require.NotNil(t, ranked[0].MatchScore)
	require.NotNil(t, ranked[1].MatchScore)
	assert.Greater(t, *ranked[0].MatchScore, *ranked[1].MatchScore)

	// 满匹配: skills 100*0.4 + exp 100*0.3 + constraints 100*0.3 = 100
	assert.Equal(t, 100.0, *ranked[0].MatchScore)
	require.NotNil(t, ranked[0].Scores)
	assert.Equal(t, 100.0, ranked[0].Scores.Skills)

	assert.NotEmpty(t, ranked[0].MatchReasoning, "前 5 名应有匹配理由")

	// 原切片不被打分污染
	assert.Nil(t, jobs[0].MatchScore)
}

// TestRankReasoningFailsOpen 验证理由生成失败时使用兜底文案
func TestRankReasoningFailsOpen(t *testing.T) {
	r := newTestRanker(agent.MockResponse{Err: assert.AnError})

	profile := &types.Profile{Skills: []string{"Go"}}
	ranked := r.Rank(context.Background(), []types.Job{{ID: "j", SkillsRequired: []string{"Go"}}}, profile, Constraints{})
	require.Len(t, ranked, 1)
	assert.Equal(t, "Matched based on skill overlap and role requirements.", ranked[0].MatchReasoning)
}
