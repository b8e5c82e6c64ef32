package generator

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"auto-apply-go/internal/tracing"
)

const tracerName = "auto-apply-go/internal/generator"

// jsonSystemPrompt 要求模型只输出 JSON 的附加系统提示
const jsonSystemPrompt = "You are a helpful assistant that always responds with valid JSON only. Do not include any text outside the JSON object. Do not use markdown code blocks."

// LLMError 模型调用失败
type LLMError struct {
	Message string
	Err     error
}

func (e *LLMError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *LLMError) Unwrap() error { return e.Err }

// Client 对底层 ChatModel 的薄封装,提供文本和 JSON 两种生成入口。
// model 走主力模型,fastModel 用于改写和校验这类轻量调用。
type Client struct {
	model     model.ToolCallingChatModel
	fastModel model.ToolCallingChatModel
	logger    *log.Logger
}

// NewClient 创建生成客户端。fastModel 为 nil 时轻量调用也走主力模型。
func NewClient(m model.ToolCallingChatModel, fastModel model.ToolCallingChatModel, logger *log.Logger) *Client {
	if fastModel == nil {
		fastModel = m
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{model: m, fastModel: fastModel, logger: logger}
}

// GenerateText 用主力模型生成文本
func (c *Client) GenerateText(ctx context.Context, prompt, systemPrompt string, opts ...model.Option) (string, error) {
	return c.generate(ctx, c.model, prompt, systemPrompt, opts...)
}

// GenerateFastText 用轻量模型生成文本
func (c *Client) GenerateFastText(ctx context.Context, prompt, systemPrompt string, opts ...model.Option) (string, error) {
	return c.generate(ctx, c.fastModel, prompt, systemPrompt, opts...)
}

// GenerateJSON 生成 JSON 输出,默认低温度以提高确定性
func (c *Client) GenerateJSON(ctx context.Context, prompt, systemPrompt string, opts ...model.Option) (string, error) {
	system := jsonSystemPrompt
	if systemPrompt != "" {
		system = systemPrompt + "\n\n" + jsonSystemPrompt
	}
	merged := append([]model.Option{model.WithTemperature(0.3)}, opts...)
	return c.generate(ctx, c.model, prompt, system, merged...)
}

// GenerateFastJSON 用轻量模型生成 JSON 输出
func (c *Client) GenerateFastJSON(ctx context.Context, prompt, systemPrompt string, opts ...model.Option) (string, error) {
	system := jsonSystemPrompt
	if systemPrompt != "" {
		system = systemPrompt + "\n\n" + jsonSystemPrompt
	}
	merged := append([]model.Option{model.WithTemperature(0.0)}, opts...)
	return c.generate(ctx, c.fastModel, prompt, system, merged...)
}

func (c *Client) generate(ctx context.Context, m model.ToolCallingChatModel, prompt, systemPrompt string, opts ...model.Option) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.prompt", tracing.SafePrompt(prompt)))

	messages := make([]*schema.Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, schema.SystemMessage(systemPrompt))
	}
	messages = append(messages, schema.UserMessage(prompt))

	resp, err := m.Generate(ctx, messages, opts...)
	if err != nil {
		llmErr := &LLMError{Message: "模型调用失败", Err: err}
		tracing.RecordError(span, llmErr, tracing.ErrorTypeLLM)
		return "", llmErr
	}
	if resp == nil || resp.Content == "" {
		llmErr := &LLMError{Message: "模型返回空响应"}
		tracing.RecordError(span, llmErr, tracing.ErrorTypeLLM)
		return "", llmErr
	}
	return resp.Content, nil
}

var jsonBlockRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ExtractJSON 从模型响应中提取 JSON 文本。
// 优先取 markdown 代码块,否则做括号配对截取,都找不到时原样返回。
func ExtractJSON(text string) string {
	if m := jsonBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(text, pair[0])
		if start < 0 {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			ch := text[i]
			if inString {
				if escaped {
					escaped = false
				} else if ch == '\\' {
					escaped = true
				} else if ch == '"' {
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case pair[0]:
				depth++
			case pair[1]:
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return strings.TrimSpace(text)
}

// truncateRunes 按字符数截断提示词素材,保证不会把多字节字符切成半截
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
