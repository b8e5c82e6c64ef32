package generator

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-apply-go/internal/agent"
	"auto-apply-go/internal/types"
)

// TestProofPackBuilderNormalizesItems 无 URL 条目被丢弃,缺省字段补默认值
func TestProofPackBuilderNormalizesItems(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{Content: `[
		{"title": "ChatBoard repo", "url": "https://github.com/wanglei/chatboard", "category": "Code",
		 "description": "Realtime chat app source", "related_skills": ["Go"], "related_project_name": "ChatBoard"},
		{"title": "Invented artifact", "url": "", "category": "Demo", "description": "should be dropped"},
		{"url": "https://github.com/wanglei"}
	]`})
	builder := NewProofPackBuilder(NewClient(mock, nil, discardLogger()), discardLogger())

	items, err := builder.Build(context.Background(), &sampleProfile)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "ChatBoard repo", items[0].Title)
	assert.NotEmpty(t, items[0].ID)
	assert.NotEmpty(t, items[0].CreatedAt)

	// 缺省字段补默认值
	assert.Equal(t, "Unnamed Artifact", items[1].Title)
	assert.Equal(t, "General Artifact", items[1].Category)
	assert.Equal(t, "No description provided", items[1].Description)
	assert.NotNil(t, items[1].RelatedSkills)
}

// TestProofPackBuilderParseFailureIsHardError 解析失败不降级,直接报错
func TestProofPackBuilderParseFailureIsHardError(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{Content: "not json at all"})
	builder := NewProofPackBuilder(NewClient(mock, nil, discardLogger()), discardLogger())

	_, err := builder.Build(context.Background(), &sampleProfile)
	require.Error(t, err)
	var packErr *ProofPackError
	assert.ErrorAs(t, err, &packErr)
}

// TestBulletGeneratorRequiresBackground 空档案拒绝生成
func TestBulletGeneratorRequiresBackground(t *testing.T) {
	mock := agent.NewMockChatModel()
	gen := NewBulletGenerator(NewClient(mock, nil, discardLogger()), discardLogger())

	_, err := gen.Generate(context.Background(), &types.Profile{Name: "Empty"})
	require.Error(t, err)
	var bulletErr *BulletError
	assert.ErrorAs(t, err, &bulletErr)
}

// TestBulletGeneratorCategorizesAndGrounds 分类与来源锚定核对
func TestBulletGeneratorCategorizesAndGrounds(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{Content: `[
		{"bullet": "Built a REST API in Go serving 1k QPS", "source_type": "experience",
		 "source_name": "Acme Labs", "technologies": ["Go"], "has_metrics": true},
		{"bullet": "Led a team of 4 students shipping ChatBoard", "source_type": "project",
		 "source_name": "ChatBoard", "has_metrics": true},
		{"bullet": "Optimized something at MysteryCorp", "source_type": "experience",
		 "source_name": "MysteryCorp", "has_metrics": false},
		{"bullet": "   ", "source_type": "project", "source_name": "ChatBoard"}
	]`})
	gen := NewBulletGenerator(NewClient(mock, nil, discardLogger()), discardLogger())

	bullets, err := gen.Generate(context.Background(), &sampleProfile)
	require.NoError(t, err)
	require.Len(t, bullets, 3)

	assert.Equal(t, "backend", bullets[0].Category)
	assert.True(t, bullets[0].Grounded)
	assert.Equal(t, "leadership", bullets[1].Category)
	assert.True(t, bullets[1].Grounded)
	// 档案里不存在的来源标记为未锚定
	assert.False(t, bullets[2].Grounded)
	assert.Equal(t, "general", bullets[2].Category)
}

// TestBulletGeneratorParseFailureIsHardError 解析失败不降级
func TestBulletGeneratorParseFailureIsHardError(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{Content: "oops"})
	gen := NewBulletGenerator(NewClient(mock, nil, discardLogger()), discardLogger())

	_, err := gen.Generate(context.Background(), &sampleProfile)
	require.Error(t, err)
	var bulletErr *BulletError
	assert.ErrorAs(t, err, &bulletErr)
}

// TestTruncateRunesKeepsMultibyteBoundary 截断按字符数进行,多字节字符不会被切坏
func TestTruncateRunesKeepsMultibyteBoundary(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 500))
	assert.Equal(t, "", truncateRunes("anything", 0))

	chinese := "负责分布式系统的设计与实现"
	got := truncateRunes(chinese, 5)
	assert.Equal(t, "负责分布式", got)
	assert.True(t, utf8.ValidString(got))

	// 大段多字节描述截断后仍是合法 UTF-8
	long := ""
	for i := 0; i < 200; i++ {
		long += "数据库"
	}
	got = truncateRunes(long, 500)
	assert.Equal(t, 500, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}
