package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// CoverLetterError 求职信生成失败
type CoverLetterError struct {
	Message string
	Err     error
}

func (e *CoverLetterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CoverLetterError) Unwrap() error { return e.Err }

// CoverLetterResult 求职信与其事实核查结果
type CoverLetterResult struct {
	JobID        string       `json:"job_id"`
	GeneratedAt  string       `json:"generated_at"`
	Text         string       `json:"cover_letter_text"`
	Verification Verification `json:"verification"`
	IsGrounded   bool         `json:"is_grounded"`
}

// CoverLetterWriter 生成三段式求职信并做事实核查
type CoverLetterWriter struct {
	client   *Client
	verifier *Verifier
	logger   *log.Logger
}

// NewCoverLetterWriter 创建求职信生成器
func NewCoverLetterWriter(client *Client, verifier *Verifier, logger *log.Logger) *CoverLetterWriter {
	if logger == nil {
		logger = log.Default()
	}
	return &CoverLetterWriter{client: client, verifier: verifier, logger: logger}
}

// Generate 为指定职位生成个性化求职信
func (w *CoverLetterWriter) Generate(ctx context.Context, job *types.Job, profile *types.Profile) (*CoverLetterResult, error) {
	if job == nil {
		return nil, &CoverLetterError{Message: "职位不能为空"}
	}
	if profile == nil {
		return nil, &CoverLetterError{Message: "学生档案不能为空"}
	}

	achievements := selectAchievements(job, profile)
	achievementsJSON, _ := json.MarshalIndent(achievements, "", "  ")

	skills := profile.Skills
	if len(skills) > 10 {
		skills = skills[:10]
	}

	desc := truncateRunes(job.Description, 500)

	prompt := fmt.Sprintf(`Write a professional, enthusiastic 3-paragraph cover letter for a student applying to this job.

JOB DETAILS:
Title: %s
Company: %s
Description: %s...

STUDENT PROFILE:
Name: %s
Skills: %s

KEY ACHIEVEMENTS (Use 2-3 of these):
%s

STRUCTURE:
Paragraph 1 (Hook): state interest in %s and the %s role. Mention specific excitement about what the company does (infer from description).
Paragraph 2 (Evidence): Connect specific achievements/bullets to the job requirements. Prove you can do the job.
Paragraph 3 (Closing): Reiterate enthusiasm. State availability. Call to action (interview request).

TONE: Professional, confident, eager, but not arrogant.
Start with "Dear Hiring Team," (or specific name if known).`,
		job.Title, job.Company, desc,
		profile.Name, strings.Join(skills, ", "),
		string(achievementsJSON),
		job.Company, job.Title)

	text, err := w.client.GenerateText(ctx, prompt,
		"You are an expert career coach writing a cover letter.",
		model.WithTemperature(0.7))
	if err != nil {
		return nil, &CoverLetterError{Message: "生成求职信失败", Err: err}
	}

	verification := w.verifier.VerifyContent(ctx, text, "cover_letter")

	return &CoverLetterResult{
		JobID:        job.ID,
		GeneratedAt:  utils.NowISO(),
		Text:         text,
		Verification: verification,
		IsGrounded:   verification.IsGrounded,
	}, nil
}

// selectAchievements 从档案经历里挑出与职位技能相关的要点,最多取 5 条
func selectAchievements(job *types.Job, profile *types.Profile) []string {
	jobSkills := make([]string, 0, len(job.SkillsRequired))
	for _, s := range job.SkillsRequired {
		jobSkills = append(jobSkills, strings.ToLower(s))
	}

	var relevant []string
	for _, exp := range profile.Experience {
		for _, bullet := range exp.Responsibilities {
			lower := strings.ToLower(bullet)
			for _, skill := range jobSkills {
				if skill != "" && strings.Contains(lower, skill) {
					relevant = append(relevant, bullet)
					break
				}
			}
		}
	}
	if len(relevant) > 5 {
		relevant = relevant[:5]
	}
	return relevant
}
