package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse 一次模拟调用的返回内容
type MockResponse struct {
	Content string
	Err     error
}

// MockChatModel 按顺序返回预设响应的模拟模型,供测试和演示模式使用。
// 响应用尽后重复返回最后一条。
type MockChatModel struct {
	mu        sync.Mutex
	responses []MockResponse
	CallCount int
	// 记录每次调用的最后一条用户消息,便于测试断言提示词
	Prompts []string
}

// NewMockChatModel 创建顺序响应的模拟模型
func NewMockChatModel(responses ...MockResponse) *MockChatModel {
	return &MockChatModel{responses: responses}
}

// Generate 实现 model.ChatModel 接口
func (m *MockChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(messages) > 0 {
		m.Prompts = append(m.Prompts, messages[len(messages)-1].Content)
	}

	idx := m.CallCount
	m.CallCount++
	if len(m.responses) == 0 {
		return nil, fmt.Errorf("模拟模型未配置任何响应")
	}
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	resp := m.responses[idx]
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &schema.Message{Role: schema.Assistant, Content: resp.Content}, nil
}

// Stream 实现 model.ChatModel 接口
func (m *MockChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, messages, options...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools 实现 model.ChatModel 接口
func (m *MockChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

// WithTools 实现 model.ToolCallingChatModel 接口
func (m *MockChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

var _ model.ToolCallingChatModel = (*MockChatModel)(nil)
