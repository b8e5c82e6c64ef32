package handler

import (
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"auto-apply-go/internal/assembler"
	"auto-apply-go/internal/generator"
	"auto-apply-go/internal/policy"
	"auto-apply-go/internal/search"
	"auto-apply-go/internal/submitter"
	"auto-apply-go/internal/tracker"
)

// writeError 把领域错误映射到 HTTP 状态码:
// 错误信息含 not found 的是 404,业务组件的类型化错误是 400,其余 500。
func writeError(c *app.RequestContext, err error) {
	status := consts.StatusInternalServerError

	if strings.Contains(strings.ToLower(err.Error()), "not found") {
		status = consts.StatusNotFound
	} else if isDomainError(err) {
		status = consts.StatusBadRequest
	}

	c.JSON(status, utils.H{"error": err.Error()})
}

func isDomainError(err error) bool {
	var policyErr *policy.PolicyError
	var asmErr *assembler.AssemblerError
	var subErr *submitter.SubmissionError
	var trackerErr *tracker.TrackerError
	var searchErr *search.SearchError
	var proofErr *generator.ProofPackError
	var bulletErr *generator.BulletError
	return errors.As(err, &policyErr) ||
		errors.As(err, &asmErr) ||
		errors.As(err, &subErr) ||
		errors.As(err, &trackerErr) ||
		errors.As(err, &searchErr) ||
		errors.As(err, &proofErr) ||
		errors.As(err, &bulletErr)
}

func writeBadRequest(c *app.RequestContext, message string) {
	c.JSON(consts.StatusBadRequest, utils.H{"error": message})
}

func writeNotFound(c *app.RequestContext, message string) {
	c.JSON(consts.StatusNotFound, utils.H{"error": message})
}
