// 沙箱职位门户:独立运行的模拟招聘网站,用来演练自动投递流水线。
// 提供职位列表、详情与投递接口,投递接口用 X-API-Key 做鉴权。
package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/keyauth"
	"github.com/spf13/pflag"

	"auto-apply-go/internal/storage"
)

// validAPIKeys 演示环境可用的 API Key
var validAPIKeys = map[string]bool{
	"sandbox_demo_key_2026": true,
	"test_api_key_12345":    true,
	"dev_portal_key_abc":    true,
}

// JobPosting 门户侧的职位完整信息
type JobPosting struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Company             string   `json:"company"`
	Location            string   `json:"location"`
	JobType             string   `json:"job_type"`
	ExperienceLevel     string   `json:"experience_level"`
	SalaryRange         string   `json:"salary_range,omitempty"`
	Description         string   `json:"description"`
	Requirements        []string `json:"requirements"`
	Responsibilities    []string `json:"responsibilities"`
	SkillsRequired      []string `json:"skills_required"`
	Benefits            []string `json:"benefits"`
	PostedDate          string   `json:"posted_date"`
	ApplicationDeadline string   `json:"application_deadline,omitempty"`
	IsRemote            bool     `json:"is_remote"`
	VisaSponsorship     bool     `json:"visa_sponsorship"`
}

// JobListItem 列表视图的精简职位条目
type JobListItem struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Location        string   `json:"location"`
	JobType         string   `json:"job_type"`
	ExperienceLevel string   `json:"experience_level"`
	SalaryRange     string   `json:"salary_range,omitempty"`
	PostedDate      string   `json:"posted_date"`
	IsRemote        bool     `json:"is_remote"`
	SkillsRequired  []string `json:"skills_required"`
}

// ApplicationForm 投递表单
type ApplicationForm struct {
	ApplicantName     string `json:"applicant_name"`
	Email             string `json:"email"`
	Phone             string `json:"phone,omitempty"`
	ResumeText        string `json:"resume_text"`
	CoverLetter       string `json:"cover_letter,omitempty"`
	LinkedInURL       string `json:"linkedin_url,omitempty"`
	GithubURL         string `json:"github_url,omitempty"`
	PortfolioURL      string `json:"portfolio_url,omitempty"`
	WorkAuthorization string `json:"work_authorization"`
	Availability      string `json:"availability"`
	SalaryExpectation string `json:"salary_expectation,omitempty"`
	AdditionalInfo    string `json:"additional_info,omitempty"`
}

// applicationRecord 门户侧落盘的投递记录
type applicationRecord struct {
	ID          string          `json:"id"`
	JobID       string          `json:"job_id"`
	JobTitle    string          `json:"job_title"`
	Company     string          `json:"company"`
	SubmittedAt string          `json:"submitted_at"`
	Status      string          `json:"status"`
	Applicant   ApplicationForm `json:"applicant"`
}

type jobsEnvelope struct {
	Jobs []JobPosting `json:"jobs"`
}

type applicationsEnvelope struct {
	Applications []applicationRecord `json:"applications"`
}

// portal 门户状态,职位和投递记录都持久化为 JSON 文件
type portal struct {
	jobsPath string
	appsPath string
	logger   *log.Logger
}

func (p *portal) readJobs() []JobPosting {
	var env jobsEnvelope
	if err := storage.ReadJSONFile(p.jobsPath, &env); err != nil {
		p.logger.Printf("读取职位文件失败: %v", err)
		return nil
	}
	return env.Jobs
}

func (p *portal) writeJobs(jobs []JobPosting) error {
	return storage.WriteJSONFile(p.jobsPath, jobsEnvelope{Jobs: jobs})
}

func (p *portal) readApplications() []applicationRecord {
	var env applicationsEnvelope
	if err := storage.ReadJSONFile(p.appsPath, &env); err != nil {
		p.logger.Printf("读取投递记录文件失败: %v", err)
		return nil
	}
	return env.Applications
}

func (p *portal) appendApplication(record applicationRecord) error {
	apps := p.readApplications()
	apps = append(apps, record)
	return storage.WriteJSONFile(p.appsPath, applicationsEnvelope{Applications: apps})
}

func main() {
	var addr, dataDir string
	pflag.StringVar(&addr, "addr", ":8001", "监听地址")
	pflag.StringVar(&dataDir, "data", "sandbox-data", "数据目录")
	pflag.Parse()

	logger := log.Default()
	p := &portal{
		jobsPath: filepath.Join(dataDir, "jobs.json"),
		appsPath: filepath.Join(dataDir, "applications.json"),
		logger:   logger,
	}

	// 空库时自动播种
	if len(p.readJobs()) == 0 {
		count := p.seedJobs()
		logger.Printf("已播种 %d 个演示职位", count)
	}

	h := server.New(server.WithHostPorts(addr))

	h.GET("/", func(ctx context.Context, c *app.RequestContext) {
		keys := make([]string, 0, len(validAPIKeys))
		for k := range validAPIKeys {
			keys = append(keys, k)
		}
		c.JSON(consts.StatusOK, utils.H{
			"name":    "Sandbox Job Portal",
			"version": "1.0.0",
			"endpoints": utils.H{
				"list_jobs":   "GET /sandbox/jobs",
				"job_details": "GET /sandbox/jobs/{id}",
				"apply":       "POST /sandbox/jobs/{id}/apply (requires X-API-Key)",
			},
			"demo_api_keys": keys,
		})
	})

	sandbox := h.Group("/sandbox")
	sandbox.GET("/jobs", p.handleListJobs)
	sandbox.GET("/jobs/:job_id", p.handleGetJob)
	sandbox.POST("/seed", func(ctx context.Context, c *app.RequestContext) {
		count := p.seedJobs()
		c.JSON(consts.StatusOK, utils.H{"message": fmt.Sprintf("Successfully seeded %d job postings", count)})
	})

	// 投递与记录查询需要 API Key
	protected := h.Group("/sandbox", keyauth.New(
		keyauth.WithKeyLookUp("header:X-API-Key", ""),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			return validAPIKeys[key], nil
		}),
	))
	protected.POST("/jobs/:job_id/apply", p.handleApply)
	protected.GET("/applications", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, p.readApplications())
	})

	logger.Printf("沙箱门户启动, 监听 %s, 数据目录 %s", addr, dataDir)
	h.Spin()
}

// handleListJobs 职位列表,支持类型/级别/远程/技能过滤与分页
func (p *portal) handleListJobs(ctx context.Context, c *app.RequestContext) {
	jobs := p.readJobs()

	if jobType := c.Query("job_type"); jobType != "" {
		jobs = filterJobs(jobs, func(j JobPosting) bool { return strings.EqualFold(j.JobType, jobType) })
	}
	if level := c.Query("experience_level"); level != "" {
		jobs = filterJobs(jobs, func(j JobPosting) bool { return strings.EqualFold(j.ExperienceLevel, level) })
	}
	if remote := c.Query("is_remote"); remote != "" {
		want := remote == "true" || remote == "1"
		jobs = filterJobs(jobs, func(j JobPosting) bool { return j.IsRemote == want })
	}
	if skill := c.Query("skill"); skill != "" {
		jobs = filterJobs(jobs, func(j JobPosting) bool {
			for _, s := range j.SkillsRequired {
				if strings.EqualFold(s, skill) {
					return true
				}
			}
			return false
		})
	}

	page := c.DefaultQuery("page", "1")
	perPage := c.DefaultQuery("per_page", "20")
	pageN, perPageN := atoiDefault(page, 1), atoiDefault(perPage, 20)

	total := len(jobs)
	start := (pageN - 1) * perPageN
	if start > total {
		start = total
	}
	end := start + perPageN
	if end > total {
		end = total
	}

	items := make([]JobListItem, 0, end-start)
	for _, j := range jobs[start:end] {
		skills := j.SkillsRequired
		if len(skills) > 5 {
			skills = skills[:5]
		}
		items = append(items, JobListItem{
			ID:              j.ID,
			Title:           j.Title,
			Company:         j.Company,
			Location:        j.Location,
			JobType:         j.JobType,
			ExperienceLevel: j.ExperienceLevel,
			SalaryRange:     j.SalaryRange,
			PostedDate:      j.PostedDate,
			IsRemote:        j.IsRemote,
			SkillsRequired:  skills,
		})
	}

	c.JSON(consts.StatusOK, utils.H{
		"jobs":     items,
		"total":    total,
		"page":     pageN,
		"per_page": perPageN,
	})
}

// handleGetJob 职位详情
func (p *portal) handleGetJob(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	for _, j := range p.readJobs() {
		if j.ID == jobID {
			c.JSON(consts.StatusOK, j)
			return
		}
	}
	c.JSON(consts.StatusNotFound, utils.H{"detail": "Job not found"})
}

// handleApply 接收一份投递,落盘并返回回执
func (p *portal) handleApply(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")

	var job *JobPosting
	for _, j := range p.readJobs() {
		if j.ID == jobID {
			job = &j
			break
		}
	}
	if job == nil {
		c.JSON(consts.StatusNotFound, utils.H{"detail": "Job not found"})
		return
	}

	var form ApplicationForm
	if err := c.BindJSON(&form); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"detail": "请求体解析失败: " + err.Error()})
		return
	}

	record := applicationRecord{
		ID:          uuid.NewString(),
		JobID:       jobID,
		JobTitle:    job.Title,
		Company:     job.Company,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
		Status:      "submitted",
		Applicant:   form,
	}
	if err := p.appendApplication(record); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"detail": "保存投递记录失败"})
		return
	}

	p.logger.Printf("收到投递: %s -> %s @ %s", form.ApplicantName, job.Title, job.Company)
	c.JSON(consts.StatusOK, utils.H{
		"application_id": record.ID,
		"job_id":         jobID,
		"status":         "submitted",
		"submitted_at":   record.SubmittedAt,
		"message":        fmt.Sprintf("Application submitted successfully for %s at %s", job.Title, job.Company),
	})
}

func filterJobs(jobs []JobPosting, keep func(JobPosting) bool) []JobPosting {
	out := jobs[:0:0]
	for _, j := range jobs {
		if keep(j) {
			out = append(out, j)
		}
	}
	return out
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
