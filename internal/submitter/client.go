package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"auto-apply-go/internal/constants"
	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/tracing"
	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

const tracerName = "auto-apply-go/internal/submitter"

// SubmissionError 投递失败
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Result 一次成功投递的结果
type Result struct {
	ApplicationID string         `json:"application_id"`
	JobID         string         `json:"job_id"`
	Attempts      int            `json:"attempts"`
	Receipt       map[string]any `json:"receipt"`
}

// applyPayload 沙箱门户投递接口的请求体
type applyPayload struct {
	ApplicantName     string `json:"applicant_name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	ResumeText        string `json:"resume_text"`
	CoverLetter       string `json:"cover_letter"`
	LinkedInURL       string `json:"linkedin_url"`
	WorkAuthorization string `json:"work_authorization"`
	Availability      string `json:"availability"`
	SalaryExpectation string `json:"salary_expectation"`
}

// Client 沙箱门户投递客户端。取最近一份已组装的申请包投出,
// 带指数退避重试,无论成败都先更新投递记录再返回。
// 429 的退避额外加 0~1 秒抖动,避免多个实例同步重试。
type Client struct {
	baseURL     string
	apiKey      string
	maxAttempts int
	httpClient  *http.Client
	store       *storage.ApplicationStore
	logger      *log.Logger

	// 测试里替换掉真实休眠
	sleep func(time.Duration)
}

// Option 投递客户端可选配置
type Option func(*Client)

// WithHTTPClient 替换底层 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(s *Client) { s.httpClient = c }
}

// WithMaxAttempts 设置单次投递的最大尝试次数
func WithMaxAttempts(n int) Option {
	return func(s *Client) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewClient 创建投递客户端
func NewClient(baseURL, apiKey string, store *storage.ApplicationStore, logger *log.Logger, options ...Option) *Client {
	if logger == nil {
		logger = log.Default()
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		maxAttempts: constants.DefaultSubmitMaxAttempts,
		httpClient:  &http.Client{Timeout: constants.DefaultSubmitTimeout},
		store:       store,
		logger:      logger,
		sleep:       time.Sleep,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Submit 投递指定职位最近一份已组装的申请包。
// 只要找到了记录,返回错误前一定已把失败写回投递记录。
func (c *Client) Submit(ctx context.Context, jobID string) (*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "submission.submit")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	app, err := c.store.FindReadyForSubmission(jobID)
	if err != nil {
		return nil, &SubmissionError{Message: "查询待投递记录失败", Err: err}
	}
	if app == nil || app.Package == nil {
		return nil, &SubmissionError{Message: fmt.Sprintf("No assembled application found for job %s", jobID)}
	}

	payload := buildPayload(app.Package)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &SubmissionError{Message: "序列化投递请求失败", Err: err}
	}

	url := fmt.Sprintf("%s/sandbox/jobs/%s/apply", c.baseURL, jobID)
	c.logger.Printf("开始投递 job %s (最多 %d 次尝试)", jobID, c.maxAttempts)

	var lastErr error
	attemptsMade := 0
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		attemptsMade = attempt
		receipt, statusCode, retryAfter, err := c.attempt(ctx, url, body, attempt)
		if err == nil {
			c.recordSuccess(app, receipt, attempt)
			span.SetAttributes(attribute.Int("submission.attempts", attempt))
			return &Result{
				ApplicationID: app.ID,
				JobID:         jobID,
				Attempts:      attempt,
				Receipt:       receipt,
			}, nil
		}
		lastErr = err
		if retryAfter < 0 || attempt == c.maxAttempts {
			break
		}
		tracing.RecordSubmissionRetry(span, attempt, statusCode, err.Error())
		c.logger.Printf("第 %d 次尝试失败, %s 后重试: %v", attempt, retryAfter, err)
		c.sleep(retryAfter)
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
	}

	c.recordFailure(app, attemptsMade, lastErr)
	tracing.RecordError(span, lastErr, tracing.ErrorTypeSubmission)
	return nil, &SubmissionError{Message: fmt.Sprintf("投递 job %s 失败", jobID), Err: lastErr}
}

// attempt 执行一次投递请求。返回的 retryAfter 为负表示不可重试。
func (c *Client) attempt(ctx context.Context, url string, body []byte, attempt int) (map[string]any, int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, -1, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// 传输层错误按服务端故障对待
		return nil, 0, backoff, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		receipt := map[string]any{}
		if err := json.Unmarshal(respBody, &receipt); err != nil {
			receipt = map[string]any{"raw": string(respBody)}
		}
		return receipt, resp.StatusCode, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		jitter := time.Duration(rand.Float64() * float64(time.Second))
		return nil, resp.StatusCode, backoff + jitter, fmt.Errorf("rate limited (HTTP 429): %s", strings.TrimSpace(string(respBody)))
	case resp.StatusCode >= 500:
		return nil, resp.StatusCode, backoff, fmt.Errorf("server error (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	default:
		// 其余 4xx 是请求本身的问题,重试没有意义
		return nil, resp.StatusCode, -1, fmt.Errorf("request rejected (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
}

func (c *Client) recordSuccess(app *types.Application, receipt map[string]any, attempt int) {
	now := utils.NowISO()
	status := types.StatusSubmitted
	notes := app.Notes + fmt.Sprintf("\nSubmitted successfully on attempt %d.", attempt)
	if _, err := c.store.Update(app.ID, storage.ApplicationUpdate{
		Status:            &status,
		AppliedAt:         &now,
		SubmittedAt:       &now,
		Notes:             &notes,
		SubmissionReceipt: receipt,
	}); err != nil {
		c.logger.Printf("投递成功但更新记录失败: %v", err)
	}
}

func (c *Client) recordFailure(app *types.Application, attempts int, cause error) {
	status := types.StatusFailed
	notes := app.Notes + fmt.Sprintf("\nSubmission failed after %d attempts. Error: %v", attempts, cause)
	if _, err := c.store.Update(app.ID, storage.ApplicationUpdate{
		Status: &status,
		Notes:  &notes,
	}); err != nil {
		c.logger.Printf("投递失败且更新记录失败: %v", err)
	}
}

// buildPayload 把申请包压平成门户接口需要的表单字段
func buildPayload(pkg *types.Package) applyPayload {
	return applyPayload{
		ApplicantName:     pkg.Profile.Name,
		Email:             pkg.Profile.Email,
		Phone:             pkg.Profile.Phone,
		ResumeText:        flattenResume(pkg.Artifacts.Resume),
		CoverLetter:       pkg.Artifacts.CoverLetter,
		LinkedInURL:       pkg.Profile.LinkedIn,
		WorkAuthorization: "US Citizen / OPT",
		Availability:      "Immediately",
		SalaryExpectation: "Competitive",
	}
}

// flattenResume 把定制简历渲染成纯文本,每段经历一个分节
func flattenResume(resume *types.TailoredResume) string {
	if resume == nil {
		return ""
	}
	var lines []string
	for _, exp := range resume.Experiences {
		lines = append(lines, fmt.Sprintf("--- %s ---", exp.Company))
		lines = append(lines, exp.TailoredBullets...)
	}
	return strings.Join(lines, "\n")
}
