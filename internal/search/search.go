package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

// fetchPerPage 单次抓取的职位数上限,沙箱门户的分页上限
const fetchPerPage = 100

// SearchError 职位抓取失败
type SearchError struct {
	Message string
	Err     error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SearchError) Unwrap() error { return e.Err }

// Constraints 学生的求职约束,全部为可选项,零值不过滤
type Constraints struct {
	RemoteOnly              bool     `json:"remote_only"`
	VisaSponsorshipRequired bool     `json:"visa_sponsorship_required"`
	ExperienceLevels        []string `json:"experience_levels"`
	JobTypes                []string `json:"job_types"`
	RequiredSkills          []string `json:"required_skills"`
	PreferredLocations      []string `json:"preferred_locations"`
	MinSalary               float64  `json:"min_salary"`
}

// Result 一次抓取的汇总结果
type Result struct {
	Message       string      `json:"message"`
	Jobs          []types.Job `json:"jobs"`
	TotalFetched  int         `json:"total_fetched"`
	TotalMatching int         `json:"total_matching"`
	NewJobsStored int         `json:"new_jobs_stored"`
}

// posting 沙箱门户职位详情的响应体
type posting struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	JobType          string   `json:"job_type"`
	ExperienceLevel  string   `json:"experience_level"`
	SalaryRange      string   `json:"salary_range"`
	Description      string   `json:"description"`
	Requirements     []string `json:"requirements"`
	Responsibilities []string `json:"responsibilities"`
	SkillsRequired   []string `json:"skills_required"`
	PostedDate       string   `json:"posted_date"`
	IsRemote         bool     `json:"is_remote"`
	VisaSponsorship  bool     `json:"visa_sponsorship"`
}

// listEnvelope 门户列表接口的响应体
type listEnvelope struct {
	Jobs []posting `json:"jobs"`
}

// Service 从沙箱门户抓取职位,按学生约束过滤打分后去重入库。
// 去重键是公司加职位名的摘要,同一职位重复抓取不会重复入库。
type Service struct {
	baseURL    string
	httpClient *http.Client
	jobs       *storage.JobStore
	logger     *log.Logger
}

// Option 抓取服务可选配置
type Option func(*Service)

// WithHTTPClient 替换底层 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.httpClient = c }
}

// NewService 创建职位抓取服务
func NewService(baseURL string, jobs *storage.JobStore, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Default()
	}
	s := &Service{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		jobs:       jobs,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search 抓取门户职位并按约束过滤,新职位写入职位库。
// 门户不可达时返回错误,已入库的职位不受影响。
func (s *Service) Search(ctx context.Context, constraints Constraints) (*Result, error) {
	postings, err := s.fetchAll(ctx)
	if err != nil {
		return nil, &SearchError{Message: "从沙箱门户抓取职位失败", Err: err}
	}

	matching := make([]types.Job, 0, len(postings))
	for _, p := range postings {
		if !matchesConstraints(p, constraints) {
			continue
		}
		job := p.toJob(s.baseURL)
		score := matchScore(p, constraints)
		job.MatchScore = utils.Float64Ptr(score)
		matching = append(matching, job)
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return *matching[i].MatchScore > *matching[j].MatchScore
	})

	stored, err := s.storeNew(matching)
	if err != nil {
		return nil, &SearchError{Message: "保存抓取结果失败", Err: err}
	}

	s.logger.Printf("抓取 %d 个职位,匹配 %d 个,新入库 %d 个", len(postings), len(matching), stored)
	return &Result{
		Message:       fmt.Sprintf("Found %d matching jobs, %d new jobs stored", len(matching), stored),
		Jobs:          matching,
		TotalFetched:  len(postings),
		TotalMatching: len(matching),
		NewJobsStored: stored,
	}, nil
}

// fetchAll 抓取职位列表后逐个取详情。详情接口失败时退回列表项,不中断整次抓取。
func (s *Service) fetchAll(ctx context.Context) ([]posting, error) {
	listURL := fmt.Sprintf("%s/sandbox/jobs?per_page=%d", s.baseURL, fetchPerPage)
	var env listEnvelope
	if err := s.getJSON(ctx, listURL, &env); err != nil {
		return nil, err
	}

	postings := make([]posting, 0, len(env.Jobs))
	for _, item := range env.Jobs {
		detailURL := fmt.Sprintf("%s/sandbox/jobs/%s", s.baseURL, url.PathEscape(item.ID))
		var detail posting
		if err := s.getJSON(ctx, detailURL, &detail); err != nil {
			s.logger.Printf("职位 %s 详情获取失败,使用列表项: %v", item.ID, err)
			postings = append(postings, item)
			continue
		}
		postings = append(postings, detail)
	}
	return postings, nil
}

func (s *Service) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("门户返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, v)
}

// storeNew 只入库此前没见过的职位,去重键为公司加职位名的 MD5
func (s *Service) storeNew(matching []types.Job) (int, error) {
	existing, err := s.jobs.LoadAll()
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(existing))
	for _, job := range existing {
		seen[jobHash(job.Company, job.Title)] = true
	}

	stored := 0
	merged := existing
	for _, job := range matching {
		hash := jobHash(job.Company, job.Title)
		if seen[hash] {
			continue
		}
		seen[hash] = true
		job.CreatedAt = utils.NowISO()
		merged = append(merged, job)
		stored++
	}
	if stored == 0 {
		return 0, nil
	}
	if err := s.jobs.SaveAll(merged); err != nil {
		return 0, err
	}
	return stored, nil
}

// jobHash 去重键:公司与职位名各自小写去空白后拼接做 MD5
func jobHash(company, title string) string {
	key := strings.ToLower(strings.TrimSpace(company)) + "|" + strings.ToLower(strings.TrimSpace(title))
	return utils.CalculateMD5([]byte(key))
}

// toJob 把门户详情转成职位库条目。岗位职责并入描述,详情页地址回填 URL。
func (p posting) toJob(baseURL string) types.Job {
	desc := p.Description
	if len(p.Requirements) > 0 {
		desc += "\n\nRequirements:\n" + strings.Join(p.Requirements, "\n")
	}
	if len(p.Responsibilities) > 0 {
		desc += "\n\nResponsibilities:\n" + strings.Join(p.Responsibilities, "\n")
	}
	return types.Job{
		ID:              p.ID,
		Title:           p.Title,
		Company:         p.Company,
		Location:        p.Location,
		JobType:         p.JobType,
		ExperienceLevel: p.ExperienceLevel,
		SalaryRange:     p.SalaryRange,
		Description:     desc,
		URL:             fmt.Sprintf("%s/sandbox/jobs/%s", baseURL, p.ID),
		Requirements:    p.Requirements,
		SkillsRequired:  p.SkillsRequired,
		IsRemote:        p.IsRemote,
		VisaSponsorship: p.VisaSponsorship,
		PostedDate:      p.PostedDate,
	}
}

// matchesConstraints 逐项硬性过滤,任何一项不满足即淘汰
func matchesConstraints(p posting, c Constraints) bool {
	if c.RemoteOnly && !p.IsRemote {
		return false
	}
	if c.VisaSponsorshipRequired && !p.VisaSponsorship {
		return false
	}
	if len(c.ExperienceLevels) > 0 && !containsFold(c.ExperienceLevels, p.ExperienceLevel) {
		return false
	}
	if len(c.JobTypes) > 0 && !containsFold(c.JobTypes, p.JobType) {
		return false
	}
	for _, skill := range c.RequiredSkills {
		if !hasSkill(p.SkillsRequired, skill) {
			return false
		}
	}
	// 地点偏好只约束非远程职位
	if !p.IsRemote && len(c.PreferredLocations) > 0 {
		matched := false
		for _, loc := range c.PreferredLocations {
			if partialMatch(p.Location, loc) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if c.MinSalary > 0 {
		if salary, ok := parseMinSalary(p.SalaryRange); ok && salary < c.MinSalary {
			return false
		}
	}
	return true
}

// matchScore 启发式匹配分:每个命中的要求技能 10 分,远程与签证担保各加 5 分
func matchScore(p posting, c Constraints) float64 {
	score := 0.0
	for _, skill := range c.RequiredSkills {
		if hasSkill(p.SkillsRequired, skill) {
			score += 10
		}
	}
	if p.IsRemote {
		score += 5
	}
	if p.VisaSponsorship {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

// hasSkill 先找精确匹配,找不到再做双向子串匹配,容忍 "Go" 与 "Golang" 这类写法差异
func hasSkill(jobSkills []string, required string) bool {
	for _, skill := range jobSkills {
		if strings.EqualFold(skill, required) {
			return true
		}
	}
	for _, skill := range jobSkills {
		if partialMatch(skill, required) {
			return true
		}
	}
	return false
}

func partialMatch(a, b string) bool {
	la, lb := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

var salaryNumberRe = regexp.MustCompile(`[\d,]+`)

// parseMinSalary 取薪资区间里的第一个数字,时薪按每周 40 小时乘 12 折算。
// 解析不出数字时返回 false,调用方不做薪资过滤。
func parseMinSalary(salaryRange string) (float64, bool) {
	m := salaryNumberRe.FindString(salaryRange)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	lower := strings.ToLower(salaryRange)
	if strings.Contains(lower, "/hr") || strings.Contains(lower, "/hour") {
		v = v * 40 * 12
	}
	return v, true
}
