package parser

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-apply-go/internal/agent"
	"auto-apply-go/internal/generator"
)

const sampleResumeText = `Wang Lei
wang@example.com | 13800138000 | Beijing
https://github.com/wanglei

EDUCATION
Tsinghua University, B.Eng. Computer Science, 2021-2025

EXPERIENCE
Acme Labs - Backend Intern (2024.06 - 2024.09)
- Built a REST API in Go serving 1k QPS
- Wrote Python ETL scripts

SKILLS
Go, Python, Docker, SQL`

// TestProfileExtractorExtract 验证结构化抽取与字段映射
func TestProfileExtractorExtract(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{Content: `{
		"education": [{"school": "Tsinghua University", "degree": "B.Eng.", "major": "Computer Science", "duration": "2021-2025"}],
		"projects": [],
		"experience": [{"company": "Acme Labs", "title": "Backend Intern", "duration": "2024.06 - 2024.09", "responsibilities": ["Built a REST API in Go serving 1k QPS", "Wrote Python ETL scripts"]}],
		"skills": ["Go", "Python", "Docker", "SQL"],
		"certifications": [],
		"links": {"github": "https://github.com/wanglei", "linkedin": "", "portfolio": ""},
		"personal_info": {"name": "Wang Lei", "email": "wang@example.com", "phone": "13800138000", "location": "Beijing"}
	}`})
	extractor := NewProfileExtractor(generator.NewClient(mock, mock, log.New(io.Discard, "", 0)), log.New(io.Discard, "", 0))

	profile, warnings, err := extractor.Extract(context.Background(), sampleResumeText)
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, "Wang Lei", profile.Name)
	assert.Equal(t, "https://github.com/wanglei", profile.Links.GitHub)
	require.Len(t, profile.Experience, 1)
	assert.Equal(t, "Acme Labs", profile.Experience[0].Company)
	assert.Len(t, profile.Experience[0].Responsibilities, 2)
	require.Len(t, profile.Education, 1)
	assert.Equal(t, "Tsinghua University", profile.Education[0].School)
	assert.Empty(t, warnings, "原文都能对上时不应有告警")
}

// TestProfileExtractorFlagsHallucinations 验证疑似虚构条目会被标记
func TestProfileExtractorFlagsHallucinations(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{Content: `{
		"education": [{"school": "Stanford University", "degree": "PhD", "major": "", "duration": "2020"}],
		"projects": [],
		"experience": [{"company": "Google", "title": "Staff Engineer", "duration": "", "responsibilities": []}],
		"skills": ["Teamwork", "Rust"],
		"certifications": [],
		"links": {"github": "", "linkedin": "https://linkedin.com/in/fake", "portfolio": ""},
		"personal_info": {"name": "Wang Lei", "email": "", "phone": "", "location": ""}
	}`})
	extractor := NewProfileExtractor(generator.NewClient(mock, mock, log.New(io.Discard, "", 0)), log.New(io.Discard, "", 0))

	_, warnings, err := extractor.Extract(context.Background(), sampleResumeText)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)

	joined := strings.Join(warnings, "\n")
	assert.Contains(t, joined, "Stanford University")
	assert.Contains(t, joined, "Google")
	assert.Contains(t, joined, "Teamwork")
	assert.Contains(t, joined, "linkedin")
}

// TestProfileExtractorMalformedJSON 验证坏 JSON 是硬错误
func TestProfileExtractorMalformedJSON(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{Content: "I'm sorry, I can't produce that."})
	extractor := NewProfileExtractor(generator.NewClient(mock, mock, log.New(io.Discard, "", 0)), log.New(io.Discard, "", 0))

	_, _, err := extractor.Extract(context.Background(), sampleResumeText)
	require.Error(t, err, "模型输出不是 JSON 时应报错")
	var extractionErr *ProfileExtractionError
	require.ErrorAs(t, err, &extractionErr)
}

// TestProfileExtractorShortText 验证过短文本直接拒绝
func TestProfileExtractorShortText(t *testing.T) {
	mock := agent.NewMockChatModel(agent.MockResponse{Content: "{}"})
	extractor := NewProfileExtractor(generator.NewClient(mock, mock, log.New(io.Discard, "", 0)), log.New(io.Discard, "", 0))

	_, _, err := extractor.Extract(context.Background(), "too short")
	require.Error(t, err)
	assert.Zero(t, mock.CallCount, "过短文本不应触发模型调用")
}
