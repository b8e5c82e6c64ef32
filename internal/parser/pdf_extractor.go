package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// ResumePDFExtractor 使用 Eino PDF Parser 从简历 PDF 提取纯文本
type ResumePDFExtractor struct {
	parser *pdf.PDFParser
	logger *log.Logger
}

// PDFOption PDF提取器的配置选项
type PDFOption func(*ResumePDFExtractor)

// WithPDFLogger 配置自定义日志记录器
func WithPDFLogger(logger *log.Logger) PDFOption {
	return func(e *ResumePDFExtractor) {
		e.logger = logger
	}
}

// NewResumePDFExtractor 初始化简历 PDF 提取器。
// 不按页面分割,整份简历作为单个字符串返回,便于后续 LLM 抽取。
func NewResumePDFExtractor(ctx context.Context, options ...PDFOption) (*ResumePDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Eino PDF parser 失败: %w", err)
	}

	extractor := &ResumePDFExtractor{
		parser: p,
		logger: log.New(os.Stderr, "[PDF解析器] ", log.LstdFlags),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// ExtractFromFile 从 PDF 文件提取完整文本和元数据
func (e *ResumePDFExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]any, error) {
	startTime := time.Now()
	e.logger.Printf("开始处理PDF文件: %s", filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("打开PDF文件 %s 失败: %w", filePath, err)
	}
	defer file.Close()

	extraMeta := map[string]any{
		"source_file_path": filePath,
		"extraction_time":  time.Now().Format(time.RFC3339),
	}

	text, metadata, err := e.ExtractFromReader(ctx, file, filePath, extraMeta)
	duration := time.Since(startTime)
	if err != nil {
		e.logger.Printf("PDF处理失败: %s (用时 %.2f秒)", err, duration.Seconds())
		return "", nil, err
	}

	e.logger.Printf("PDF处理完成: 提取了 %d 个字符 (用时 %.2f秒)", len(text), duration.Seconds())
	return text, metadata, nil
}

// ExtractFromBytes 从内存中的 PDF 字节提取文本,供上传接口使用
func (e *ResumePDFExtractor) ExtractFromBytes(ctx context.Context, data []byte, uri string) (string, map[string]any, error) {
	return e.ExtractFromReader(ctx, bytes.NewReader(data), uri, nil)
}

// ExtractFromReader 从 io.Reader 提取文本
func (e *ResumePDFExtractor) ExtractFromReader(ctx context.Context, reader io.Reader, uri string, extraMeta map[string]any) (string, map[string]any, error) {
	if extraMeta == nil {
		extraMeta = make(map[string]any)
	}

	startTime := time.Now()

	// 大 PDF 偶发卡死,给解析器一个硬超时
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs, err := e.parser.Parse(ctx, reader,
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(extraMeta),
	)
	duration := time.Since(startTime)
	if err != nil {
		return "", extraMeta, fmt.Errorf("eino PDF parser 解析 %s 失败: %w", uri, err)
	}
	if len(docs) == 0 {
		return "", extraMeta, fmt.Errorf("eino PDF parser 对 %s 未返回任何文档", uri)
	}

	var fullContent string
	for i, doc := range docs {
		fullContent += doc.Content
		if i < len(docs)-1 {
			fullContent += "\n\n--- Page Break (inferred) ---\n\n"
		}
	}

	finalMetadata := make(map[string]any)
	if docs[0].MetaData != nil {
		finalMetadata = docs[0].MetaData
	}
	for k, v := range extraMeta {
		finalMetadata[k] = v
	}
	finalMetadata["processing_duration_ms"] = duration.Milliseconds()
	finalMetadata["document_count"] = len(docs)
	finalMetadata["text_length"] = len(fullContent)

	return fullContent, finalMetadata, nil
}
