package generator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// ResumeTailorError 简历定制失败
type ResumeTailorError struct {
	Message string
	Err     error
}

func (e *ResumeTailorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ResumeTailorError) Unwrap() error { return e.Err }

// commonTech 从职位描述里额外识别的常见技术关键词
var commonTech = map[string]bool{
	"python":     true,
	"react":      true,
	"aws":        true,
	"docker":     true,
	"kubernetes": true,
	"java":       true,
	"c++":        true,
	"typescript": true,
	"node.js":    true,
	"go":         true,
	"golang":     true,
}

// ResumeTailor 针对具体职位改写简历要点、重排技能。
// 改写走轻量模型,每条都过事实核查,未通过时回退原文。
type ResumeTailor struct {
	client   *Client
	verifier *Verifier
	logger   *log.Logger
}

// NewResumeTailor 创建简历定制器
func NewResumeTailor(client *Client, verifier *Verifier, logger *log.Logger) *ResumeTailor {
	if logger == nil {
		logger = log.Default()
	}
	return &ResumeTailor{client: client, verifier: verifier, logger: logger}
}

// Tailor 为指定职位生成定制简历
func (rt *ResumeTailor) Tailor(ctx context.Context, job *types.Job, profile *types.Profile) (*types.TailoredResume, error) {
	if job == nil {
		return nil, &ResumeTailorError{Message: "职位不能为空"}
	}
	if profile == nil {
		return nil, &ResumeTailorError{Message: "学生档案不能为空"}
	}

	keywords := extractKeywords(job)

	var experiences []types.TailoredExperience
	var changes []types.BulletChange

	for _, exp := range profile.Experience {
		bullets := exp.Responsibilities
		reworded := make([]string, 0, len(bullets))

		for _, bullet := range bullets {
			if bullet == "" {
				continue
			}
			newText, err := rt.rewordBullet(ctx, bullet, keywords)
			if err != nil {
				rt.logger.Printf("要点改写失败,保留原文: %v", err)
				reworded = append(reworded, bullet)
				continue
			}
			if newText == bullet {
				reworded = append(reworded, bullet)
				continue
			}

			verification := rt.verifier.VerifyContent(ctx, newText, "resume_bullet")
			if !verification.IsGrounded {
				rt.logger.Printf("改写要点未通过事实核查,回退原文: %s | 虚构点: %v", newText, verification.Hallucinations)
				reworded = append(reworded, bullet)
				continue
			}

			changes = append(changes, types.BulletChange{
				Original: bullet,
				New:      newText,
				Reason:   "Keyword optimization",
			})
			reworded = append(reworded, newText)
		}

		experiences = append(experiences, types.TailoredExperience{
			Company:         exp.Company,
			Title:           exp.Title,
			Duration:        exp.Duration,
			TailoredBullets: reworded,
		})
	}

	return &types.TailoredResume{
		JobID:           job.ID,
		TailoredAt:      utils.NowISO(),
		Experiences:     experiences,
		Skills:          prioritizeSkills(profile.Skills, keywords),
		KeywordsMatched: keywords,
		Changes:         changes,
	}, nil
}

// rewordBullet 让轻量模型自然融入关键词,限制单句输出
func (rt *ResumeTailor) rewordBullet(ctx context.Context, bullet string, keywords []string) (string, error) {
	top := keywords
	if len(top) > 5 {
		top = top[:5]
	}
	prompt := fmt.Sprintf(`Reword this resume bullet to include these keywords naturally if they apply, without lying.
Original: %s
Keywords: %s
Keep it concise (1 sentence).`, bullet, strings.Join(top, ", "))

	text, err := rt.client.GenerateFastText(ctx, prompt, "", model.WithTemperature(0.3), model.WithMaxTokens(60))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// extractKeywords 汇总 skills_required 与描述中的常见技术词
func extractKeywords(job *types.Job) []string {
	seen := make(map[string]bool)
	var keywords []string
	add := func(k string) {
		if k == "" || seen[strings.ToLower(k)] {
			return
		}
		seen[strings.ToLower(k)] = true
		keywords = append(keywords, k)
	}

	for _, k := range job.SkillsRequired {
		add(k)
	}
	for _, word := range strings.Fields(strings.ToLower(job.Description)) {
		cleaned := strings.Trim(word, ".,()")
		if commonTech[cleaned] {
			add(capitalize(cleaned))
		}
	}
	return keywords
}

// prioritizeSkills 与职位关键词双向匹配的技能排在前面,其余保持原顺序
func prioritizeSkills(skills []string, keywords []string) []string {
	var highlighted, others []string
	for _, skill := range skills {
		if skill == "" {
			continue
		}
		matched := false
		for _, kw := range keywords {
			sl, kl := strings.ToLower(skill), strings.ToLower(kw)
			if strings.Contains(sl, kl) || strings.Contains(kl, sl) {
				matched = true
				break
			}
		}
		if matched {
			highlighted = append(highlighted, skill)
		} else {
			others = append(others, skill)
		}
	}
	return append(highlighted, others...)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
