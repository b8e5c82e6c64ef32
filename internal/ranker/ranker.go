package ranker

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"auto-apply-go/internal/generator"
	"auto-apply-go/internal/types"
)

// 三项维度的权重,合计 1.0
const (
	weightSkills      = 0.4
	weightExperience  = 0.3
	weightConstraints = 0.3
)

// Constraints 排序时的求职约束
type Constraints struct {
	RemoteOnly         bool
	VisaRequired       bool
	PreferredLocations []string
}

// Ranker 按技能、经验、约束三项加权为职位打分,
// 并用轻量模型为头部职位生成匹配理由。
type Ranker struct {
	client *generator.Client
	logger *log.Logger
}

// NewRanker 创建职位排序器
func NewRanker(client *generator.Client, logger *log.Logger) *Ranker {
	if logger == nil {
		logger = log.Default()
	}
	return &Ranker{client: client, logger: logger}
}

// Rank 为职位列表打分并按分数降序排列。
// 匹配理由只给前 5 名生成,节省调用量;理由是辅助信息,生成失败不影响排序。
func (r *Ranker) Rank(ctx context.Context, jobs []types.Job, profile *types.Profile, constraints Constraints) []types.Job {
	// 经验年限估算:每段经历按 1.5 年折算
	studentYears := int(float64(len(profile.Experience)) * 1.5)

	ranked := make([]types.Job, len(jobs))
	copy(ranked, jobs)

	for i := range ranked {
		skillScore := skillScore(ranked[i].SkillsRequired, profile.Skills)
		expScore := experienceScore(ranked[i].ExperienceLevel, studentYears)
		constraintScore := constraintScore(&ranked[i], constraints)

		total := skillScore*weightSkills + expScore*weightExperience + constraintScore*weightConstraints
		total = round1(total)
		ranked[i].MatchScore = &total
		ranked[i].Scores = &types.RankScores{
			Skills:      round1(skillScore),
			Experience:  round1(expScore),
			Constraints: round1(constraintScore),
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return *ranked[a].MatchScore > *ranked[b].MatchScore
	})

	for i := 0; i < len(ranked) && i < 5; i++ {
		ranked[i].MatchReasoning = r.matchReasoning(ctx, &ranked[i], profile)
	}
	return ranked
}

// skillScore 要求技能与档案技能的双向子串匹配率,无要求时满分
func skillScore(jobSkills, profileSkills []string) float64 {
	if len(jobSkills) == 0 {
		return 100.0
	}

	jobNorm := make(map[string]bool)
	for _, s := range jobSkills {
		jobNorm[strings.ToLower(s)] = true
	}
	profileNorm := make([]string, 0, len(profileSkills))
	for _, s := range profileSkills {
		profileNorm = append(profileNorm, strings.ToLower(s))
	}

	matched := 0
	for jSkill := range jobNorm {
		for _, pSkill := range profileNorm {
			if strings.Contains(jSkill, pSkill) || strings.Contains(pSkill, jSkill) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(jobNorm)) * 100.0
}

// experienceScore 按职级目标年限与学生年限的差距阶梯打分
func experienceScore(jobLevel string, studentYears int) float64 {
	level := strings.ToLower(jobLevel)

	targetYears := 0
	switch {
	case strings.Contains(level, "senior") || strings.Contains(level, "lead"):
		targetYears = 5
	case strings.Contains(level, "mid") || strings.Contains(level, "experienced"):
		targetYears = 3
	case strings.Contains(level, "entry") || strings.Contains(level, "junior") ||
		strings.Contains(level, "intern") || strings.Contains(level, "new grad"):
		targetYears = 0
	}

	diff := studentYears - targetYears
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 1:
		return 100.0
	case diff <= 2:
		return 75.0
	case diff <= 3:
		return 50.0
	default:
		return 25.0
	}
}

// constraintScore 远程、签证、地点偏好逐项检查取均值,无约束时满分
func constraintScore(job *types.Job, c Constraints) float64 {
	score := 0.0
	totalChecks := 0

	if c.RemoteOnly {
		totalChecks++
		if job.IsRemote {
			score += 100.0
		}
	}
	if c.VisaRequired {
		totalChecks++
		if job.VisaSponsorship {
			score += 100.0
		}
	}
	if len(c.PreferredLocations) > 0 && !job.IsRemote {
		totalChecks++
		jobLoc := strings.ToLower(job.Location)
		for _, loc := range c.PreferredLocations {
			if strings.Contains(jobLoc, strings.ToLower(loc)) {
				score += 100.0
				break
			}
		}
	}

	if totalChecks == 0 {
		return 100.0
	}
	return score / float64(totalChecks)
}

// matchReasoning 用轻量模型生成两句话的匹配理由,失败时给固定兜底文案
func (r *Ranker) matchReasoning(ctx context.Context, job *types.Job, profile *types.Profile) string {
	jobSkills := job.SkillsRequired
	if len(jobSkills) > 5 {
		jobSkills = jobSkills[:5]
	}
	profileSkills := profile.Skills
	if len(profileSkills) > 5 {
		profileSkills = profileSkills[:5]
	}

	prompt := fmt.Sprintf(`Explain why this job is a good match for the candidate in 2 sentences.
Job: %s at %s. Skills: %s.
Candidate: Skills: %s, Experience: %d roles.
Focus on skill overlap and fit.`,
		job.Title, job.Company, strings.Join(jobSkills, ", "),
		strings.Join(profileSkills, ", "), len(profile.Experience))

	text, err := r.client.GenerateFastText(ctx, prompt, "", model.WithTemperature(0.3), model.WithMaxTokens(100))
	if err != nil {
		r.logger.Printf("匹配理由生成失败: %v", err)
		return "Matched based on skill overlap and role requirements."
	}
	return strings.TrimSpace(text)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
