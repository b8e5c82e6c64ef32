package assembler

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"auto-apply-go/internal/audit"
	"auto-apply-go/internal/constants"
	"auto-apply-go/internal/generator"
	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/tracing"
	"auto-apply-go/internal/types"
	"auto-apply-go/pkg/utils"
)

const tracerName = "auto-apply-go/internal/assembler"

// AssemblerError 申请包组装失败
type AssemblerError struct {
	Message string
	Err     error
}

func (e *AssemblerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AssemblerError) Unwrap() error { return e.Err }

// Assembler 申请包组装器。依次生成定制简历、求职信、证据映射、
// 标准问题答案,拼成完整申请包并落一条 assembled 状态的申请记录。
// 四步生成严格串行,生成器彼此独立,串行是为了成本和可预期性。
type Assembler struct {
	store       *storage.Storage
	trail       *audit.Trail
	resumeTail  *generator.ResumeTailor
	coverWriter *generator.CoverLetterWriter
	evidenceMap *generator.EvidenceMapper
	answerLib   *generator.AnswerLibrary
	logger      *log.Logger
}

// NewAssembler 创建组装器
func NewAssembler(
	store *storage.Storage,
	trail *audit.Trail,
	resumeTail *generator.ResumeTailor,
	coverWriter *generator.CoverLetterWriter,
	evidenceMap *generator.EvidenceMapper,
	answerLib *generator.AnswerLibrary,
	logger *log.Logger,
) *Assembler {
	if logger == nil {
		logger = log.Default()
	}
	return &Assembler{
		store:       store,
		trail:       trail,
		resumeTail:  resumeTail,
		coverWriter: coverWriter,
		evidenceMap: evidenceMap,
		answerLib:   answerLib,
		logger:      logger,
	}
}

// Assemble 为指定职位组装申请包。profile 为 nil 时取存储中的学生档案。
// 返回的包里带有新建申请记录的 ID。
func (a *Assembler) Assemble(ctx context.Context, jobID string, profile *types.Profile) (*types.Package, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "assembler.assemble")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	// 1. 解析上下文
	job, err := a.store.Jobs.GetByID(jobID)
	if err != nil {
		return nil, &AssemblerError{Message: "查询职位失败", Err: err}
	}
	if job == nil {
		return nil, &AssemblerError{Message: fmt.Sprintf("Job not found: %s", jobID)}
	}

	if profile == nil {
		profile, err = a.store.Profile.Load()
		if err != nil {
			return nil, &AssemblerError{Message: "读取学生档案失败", Err: err}
		}
		if profile == nil {
			return nil, &AssemblerError{Message: "Student profile not found"}
		}
	}

	a.trail.Log(jobID, constants.AuditEventSnapshot, "Profile Data Loaded", map[string]any{
		"profile_snapshot": profile,
	})

	a.logger.Printf("开始组装申请包: %s @ %s", job.Title, job.Company)

	// 2. 依次生成四类产物

	a.logger.Printf("定制简历...")
	resume, err := a.resumeTail.Tailor(ctx, job, profile)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, &AssemblerError{Message: "简历定制失败", Err: err}
	}
	a.trail.Log(jobID, constants.AuditEventGeneration, "Resume Tailored", map[string]any{
		"type": "resume", "content": resume,
	})

	a.logger.Printf("生成求职信...")
	clResult, err := a.coverWriter.Generate(ctx, job, profile)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, &AssemblerError{Message: "求职信生成失败", Err: err}
	}
	span.SetAttributes(attribute.String("artifact.cover_letter", tracing.SafeCoverLetter(clResult.Text)))
	a.trail.Log(jobID, constants.AuditEventGeneration, "Cover Letter Generated", map[string]any{
		"type": "cover_letter", "content": clResult,
	})

	a.logger.Printf("映射证据...")
	evidenceMap, err := a.evidenceMap.Map(ctx, job, profile)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, &AssemblerError{Message: "证据映射失败", Err: err}
	}
	span.SetAttributes(attribute.Int("artifact.evidence_items", len(evidenceMap)))
	a.trail.Log(jobID, constants.AuditEventGeneration, "Evidence Mapped", map[string]any{
		"type": "evidence", "content": evidenceMap,
	})

	a.logger.Printf("生成标准问题答案...")
	answers, err := a.answerLib.Generate(ctx, profile, nil, nil)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, &AssemblerError{Message: "标准问题答案生成失败", Err: err}
	}
	a.trail.Log(jobID, constants.AuditEventGeneration, "Answers Generated", map[string]any{
		"type": "answers", "count": len(answers),
	})

	questionnaire := make(map[string]string, len(answers))
	for category, answer := range answers {
		questionnaire[category] = answer.Answer
	}

	// 3. 构建申请包
	pkg := &types.Package{
		ID:          uuid.NewString(),
		JobID:       jobID,
		JobTitle:    job.Title,
		Company:     job.Company,
		AssembledAt: utils.NowISO(),
		Artifacts: types.Artifacts{
			Resume:        resume,
			CoverLetter:   clResult.Text,
			EvidenceMap:   evidenceMap,
			Questionnaire: questionnaire,
		},
		Profile: types.ProfileSnapshot{
			Name:     profile.Name,
			Email:    profile.Email,
			Phone:    profile.Phone,
			LinkedIn: profile.Links.LinkedIn,
		},
		Status: "ready_to_submit",
	}

	// 4. 落申请记录,包整体内嵌其中
	appID, err := a.store.Applications.Save(types.Application{
		JobID:       jobID,
		CompanyName: job.Company,
		JobTitle:    job.Title,
		JobURL:      job.URL,
		Location:    job.Location,
		Remote:      job.IsRemote,
		Status:      types.StatusAssembled,
		ResumeUsed:  "tailored_v1",
		CoverLetter: clResult.Text,
		Notes:       fmt.Sprintf("Package assembled with %d mapped evidence items.", len(evidenceMap)),
		Package:     pkg,
	})
	if err != nil {
		return nil, &AssemblerError{Message: "保存申请记录失败", Err: err}
	}
	pkg.ApplicationID = appID

	a.logger.Printf("组装完成, 包 ID: %s", pkg.ID)
	return pkg, nil
}
