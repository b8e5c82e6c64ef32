package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"auto-apply-go/internal/generator"
	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// ProfileExtractionError 档案抽取失败
type ProfileExtractionError struct {
	Message string
	Err     error
}

func (e *ProfileExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProfileExtractionError) Unwrap() error { return e.Err }

// extractionPrompt 严格限制模型只抽取原文事实
const extractionPrompt = `You are a resume parser. Extract ONLY facts present in the text. Do NOT invent or infer information.

Extract the following information from the resume text and return as valid JSON:

{
  "education": [
    {
      "school": "exact institution name",
      "degree": "exact degree name",
      "major": "major/field of study if mentioned",
      "duration": "graduation year or year range"
    }
  ],
  "projects": [
    {
      "name": "project name",
      "description": "brief description if provided",
      "url": "project URL if present, empty otherwise"
    }
  ],
  "experience": [
    {
      "company": "company name",
      "title": "job title/role",
      "duration": "employment duration/dates",
      "responsibilities": ["list", "of", "responsibilities"]
    }
  ],
  "skills": ["list", "of", "technical", "skills", "only"],
  "certifications": ["list", "of", "certifications"],
  "links": {
    "github": "GitHub URL if present, empty otherwise",
    "linkedin": "LinkedIn URL if present, empty otherwise",
    "portfolio": "Portfolio/website URL if present, empty otherwise"
  },
  "personal_info": {
    "name": "full name if present",
    "email": "email if present",
    "phone": "phone if present",
    "location": "location if present"
  }
}

CRITICAL RULES:
1. Extract ONLY facts explicitly stated in the resume
2. Do NOT invent, infer, or assume any information
3. If information is not present, use empty strings or empty arrays
4. For skills, extract ONLY technical skills (programming languages, frameworks, tools)
5. Do NOT add generic skills not mentioned in the text
6. Return valid JSON only, no additional text

Resume Text:
`

// genericSkills 过于笼统、疑似模型自行添加的软技能
var genericSkills = map[string]bool{
	"problem solving": true,
	"communication":   true,
	"teamwork":        true,
	"leadership":      true,
	"time management": true,
}

// extractedProfile 模型输出的中间结构
type extractedProfile struct {
	Education []struct {
		School   string `json:"school"`
		Degree   string `json:"degree"`
		Major    string `json:"major"`
		Duration string `json:"duration"`
	} `json:"education"`
	Projects []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		URL         string `json:"url"`
	} `json:"projects"`
	Experience []struct {
		Company          string   `json:"company"`
		Title            string   `json:"title"`
		Duration         string   `json:"duration"`
		Responsibilities []string `json:"responsibilities"`
	} `json:"experience"`
	Skills         []string `json:"skills"`
	Certifications []string `json:"certifications"`
	Links          struct {
		GitHub    string `json:"github"`
		LinkedIn  string `json:"linkedin"`
		Portfolio string `json:"portfolio"`
	} `json:"links"`
	PersonalInfo struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Location string `json:"location"`
	} `json:"personal_info"`
}

// ProfileExtractor 用 LLM 从简历文本抽取结构化档案
type ProfileExtractor struct {
	client *generator.Client
	logger *log.Logger
}

// NewProfileExtractor 创建档案抽取器
func NewProfileExtractor(client *generator.Client, logger *log.Logger) *ProfileExtractor {
	if logger == nil {
		logger = log.Default()
	}
	return &ProfileExtractor{client: client, logger: logger}
}

// Extract 从简历文本抽取档案。模型输出无法解析成 JSON 时视为硬错误,
// 抽取结果中疑似虚构的条目以 warnings 返回。
func (pe *ProfileExtractor) Extract(ctx context.Context, resumeText string) (*types.Profile, []string, error) {
	if len(strings.TrimSpace(resumeText)) < 50 {
		return nil, nil, &ProfileExtractionError{Message: "简历文本过短,无法抽取有效信息"}
	}

	responseText, err := pe.client.GenerateJSON(ctx, extractionPrompt+resumeText,
		"You are a precise resume parser. Return only valid JSON. Never invent information.",
		model.WithTemperature(0.1))
	if err != nil {
		return nil, nil, &ProfileExtractionError{Message: "档案抽取调用失败", Err: err}
	}

	var extracted extractedProfile
	if err := json.Unmarshal([]byte(generator.ExtractJSON(responseText)), &extracted); err != nil {
		pe.logger.Printf("档案抽取结果解析失败: %v", err)
		return nil, nil, &ProfileExtractionError{Message: "抽取结果不是合法 JSON", Err: err}
	}

	profile := pe.toProfile(&extracted)
	warnings := validateExtracted(&extracted, resumeText)
	return profile, warnings, nil
}

func (pe *ProfileExtractor) toProfile(extracted *extractedProfile) *types.Profile {
	now := utils.NowISO()
	profile := &types.Profile{
		Name:     extracted.PersonalInfo.Name,
		Email:    extracted.PersonalInfo.Email,
		Phone:    extracted.PersonalInfo.Phone,
		Location: extracted.PersonalInfo.Location,
		Links: types.ProfileLinks{
			LinkedIn:  extracted.Links.LinkedIn,
			GitHub:    extracted.Links.GitHub,
			Portfolio: extracted.Links.Portfolio,
		},
		Skills:         extracted.Skills,
		Certifications: extracted.Certifications,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, edu := range extracted.Education {
		profile.Education = append(profile.Education, types.Education{
			School:   edu.School,
			Degree:   edu.Degree,
			Major:    edu.Major,
			Duration: edu.Duration,
		})
	}
	for _, exp := range extracted.Experience {
		profile.Experience = append(profile.Experience, types.Experience{
			Company:          exp.Company,
			Title:            exp.Title,
			Duration:         exp.Duration,
			Responsibilities: exp.Responsibilities,
		})
	}
	for _, p := range extracted.Projects {
		profile.Projects = append(profile.Projects, types.Project{
			Name:        p.Name,
			Description: p.Description,
			URL:         p.URL,
		})
	}
	return profile
}

// validateExtracted 对照原文标记疑似虚构的条目
func validateExtracted(extracted *extractedProfile, originalText string) []string {
	var warnings []string
	originalLower := strings.ToLower(originalText)

	for i, edu := range extracted.Education {
		if edu.School != "" && !strings.Contains(originalLower, strings.ToLower(edu.School)) {
			warnings = append(warnings, fmt.Sprintf("Education[%d]: Institution '%s' may not be in original text", i, edu.School))
		}
	}
	for i, exp := range extracted.Experience {
		if exp.Company != "" && !strings.Contains(originalLower, strings.ToLower(exp.Company)) {
			warnings = append(warnings, fmt.Sprintf("Experience[%d]: Company '%s' may not be in original text", i, exp.Company))
		}
	}

	var flaggedSkills []string
	for _, skill := range extracted.Skills {
		skillLower := strings.ToLower(skill)
		if genericSkills[skillLower] {
			flaggedSkills = append(flaggedSkills, skill)
			continue
		}
		if !strings.Contains(originalLower, skillLower) && len(skill) < 20 {
			// 放宽到逐词匹配,避免误报带修饰的技能名
			found := false
			for _, word := range strings.Fields(skillLower) {
				if len(word) > 3 && strings.Contains(originalLower, word) {
					found = true
					break
				}
			}
			if !found {
				flaggedSkills = append(flaggedSkills, skill)
			}
		}
	}
	if len(flaggedSkills) > 0 {
		warnings = append(warnings, fmt.Sprintf("Skills: Some skills may not be in original text: %v", flaggedSkills))
	}

	for key, url := range map[string]string{
		"github":    extracted.Links.GitHub,
		"linkedin":  extracted.Links.LinkedIn,
		"portfolio": extracted.Links.Portfolio,
	} {
		if url != "" && !strings.Contains(originalText, url) {
			warnings = append(warnings, fmt.Sprintf("Links: %s URL may be hallucinated", key))
		}
	}

	return warnings
}
