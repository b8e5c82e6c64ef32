package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	// OpenAI-compatible API endpoint for Groq
	openAICompatibleGroqAPIURL = "https://api.groq.com/openai/v1/chat/completions"
	defaultGroqModelName       = "llama-3.3-70b-versatile"
)

// --- OpenAI Compatible Structures ---

type OpenAIToolFunctionParamsProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

type OpenAIToolFunctionParams struct {
	Type       string                                      `json:"type"`
	Properties map[string]OpenAIToolFunctionParamsProperty `json:"properties"`
	Required   []string                                    `json:"required,omitempty"`
}

type OpenAIFunction struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Parameters  OpenAIToolFunctionParams `json:"parameters"`
}

type OpenAITool struct {
	Type     string         `json:"type"` // 必须是 "function"
	Function OpenAIFunction `json:"function"`
}

type OpenAIChatCompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []*schema.Message `json:"messages"`
	Tools       []OpenAITool      `json:"tools,omitempty"`
	Temperature *float32          `json:"temperature,omitempty"`
	MaxTokens   *int              `json:"max_tokens,omitempty"`
}

type OpenAIMessage struct {
	Role      string               `json:"role"`
	Content   *string              `json:"content"` // 出现 tool_calls 时可能为 null
	ToolCalls []OpenAIToolCallData `json:"tool_calls,omitempty"`
}

type OpenAIToolCallData struct {
	Id       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type OpenAIChatChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type OpenAICompletionResponse struct {
	Id      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []OpenAIChatChoice `json:"choices"`
}

// GroqChatModel 实现 model.ToolCallingChatModel 接口,
// 通过 OpenAI 兼容 API 与 Groq 上托管的模型交互。
type GroqChatModel struct {
	apiKey           string
	modelName        string
	apiURL           string
	httpClient       *http.Client
	boundOpenAITools []OpenAITool
	logger           *log.Logger
}

// GroqOption GroqChatModel 的配置选项
type GroqOption func(*GroqChatModel)

// WithHTTPClient 替换默认的 HTTP 客户端
func WithHTTPClient(c *http.Client) GroqOption {
	return func(m *GroqChatModel) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// WithLogger 注入日志器
func WithLogger(l *log.Logger) GroqOption {
	return func(m *GroqChatModel) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewGroqChatModel 创建一个新的 GroqChatModel 实例
func NewGroqChatModel(apiKey string, modelName string, apiURL string, opts ...GroqOption) (*GroqChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}

	mn := modelName
	if strings.TrimSpace(mn) == "" {
		mn = defaultGroqModelName
	}

	url := apiURL
	if strings.TrimSpace(url) == "" {
		url = openAICompatibleGroqAPIURL
	}

	m := &GroqChatModel{
		apiKey:           apiKey,
		modelName:        mn,
		apiURL:           url,
		httpClient:       &http.Client{Timeout: 60 * time.Second},
		boundOpenAITools: make([]OpenAITool, 0),
		logger:           log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.logger.Printf("使用 Groq LLM 客户端, API URL: %s, 模型: %s", url, mn)
	return m, nil
}

// Generate 实现 model.ChatModel 接口。
// 通过 model.WithTemperature/model.WithMaxTokens/model.WithModel 传入的
// 通用选项会映射到 OpenAI 兼容请求字段。
func (g *GroqChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	common := model.GetCommonOptions(&model.Options{}, options...)

	reqPayload := OpenAIChatCompletionRequest{
		Model:       g.modelName,
		Messages:    messages,
		Temperature: common.Temperature,
		MaxTokens:   common.MaxTokens,
	}
	if common.Model != nil && *common.Model != "" {
		reqPayload.Model = *common.Model
	}
	if len(g.boundOpenAITools) > 0 {
		reqPayload.Tools = g.boundOpenAITools
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API 请求失败，状态 %s: %s", httpResp.Status, string(bodyBytes))
	}

	var openAIResp OpenAICompletionResponse
	if err := json.Unmarshal(bodyBytes, &openAIResp); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w。响应体: %s", err, string(bodyBytes))
	}
	if len(openAIResp.Choices) == 0 {
		return nil, fmt.Errorf("从 API 收到空选项: %s", string(bodyBytes))
	}

	apiMessage := openAIResp.Choices[0].Message
	responseContent := ""
	if apiMessage.Content != nil {
		responseContent = *apiMessage.Content
	}

	resultMessage := &schema.Message{
		Role:    schema.RoleType(apiMessage.Role),
		Content: responseContent,
	}
	if len(apiMessage.ToolCalls) > 0 {
		resultMessage.ToolCalls = make([]schema.ToolCall, len(apiMessage.ToolCalls))
		for i, tc := range apiMessage.ToolCalls {
			resultMessage.ToolCalls[i] = schema.ToolCall{
				ID: tc.Id,
				Function: schema.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			}
		}
	}
	if resultMessage.Role == "" {
		resultMessage.Role = schema.Assistant
	}

	return resultMessage, nil
}

// Stream 实现 model.ChatModel 接口。Groq 的流式响应当前未接入,
// 退化为一次性 Generate 后包装成单元素流。
func (g *GroqChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := g.Generate(ctx, messages, options...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools 实现 model.ChatModel 接口。当前投递流水线不依赖工具调用,
// 绑定的工具只按空参数 schema 透传。
func (g *GroqChatModel) BindTools(tools []*schema.ToolInfo) error {
	g.boundOpenAITools = make([]OpenAITool, 0, len(tools))
	for _, toolInfo := range tools {
		if toolInfo == nil {
			continue
		}
		g.boundOpenAITools = append(g.boundOpenAITools, OpenAITool{
			Type: "function",
			Function: OpenAIFunction{
				Name:        toolInfo.Name,
				Description: toolInfo.Desc,
				Parameters: OpenAIToolFunctionParams{
					Type:       "object",
					Properties: map[string]OpenAIToolFunctionParamsProperty{},
				},
			},
		})
	}
	return nil
}

// WithTools 实现 model.ToolCallingChatModel 接口
func (g *GroqChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if err := g.BindTools(tools); err != nil {
		return nil, err
	}
	return g, nil
}

var _ model.ChatModel = (*GroqChatModel)(nil)
var _ model.ToolCallingChatModel = (*GroqChatModel)(nil)
