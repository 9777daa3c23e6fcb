// MockClient is a generation-client test double.
//
// Supports fixed responses, streaming output, and error injection.
package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/noahdevelopsio/lifeos/llm"
)

// ClientCall records one invocation of the mock.
type ClientCall struct {
	Method            string
	Messages          []llm.Message
	Prompt            string
	SystemInstruction string
}

// MockClient implements llm.Client with configurable behavior.
type MockClient struct {
	mu sync.Mutex

	response     string
	streamChunks []string
	err          error
	delay        time.Duration
	model        string
	name         string

	calls []ClientCall
}

// NewMockClient returns a mock that answers "mock response" as model
// "mock-model".
func NewMockClient() *MockClient {
	return &MockClient{
		response: "mock response",
		model:    "mock-model",
		name:     "mock",
	}
}

// WithResponse sets the text Complete and CompleteJSON return.
func (m *MockClient) WithResponse(response string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithStreamChunks sets the fragments Stream delivers, in order.
func (m *MockClient) WithStreamChunks(chunks ...string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamChunks = chunks
	return m
}

// WithError makes every call fail with err.
func (m *MockClient) WithError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithDelay makes every call sleep before answering.
func (m *MockClient) WithDelay(d time.Duration) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithModel sets the model identifier the mock reports.
func (m *MockClient) WithModel(model string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
	return m
}

func (m *MockClient) Complete(ctx context.Context, messages []llm.Message, systemInstruction string) (string, error) {
	m.record(ClientCall{Method: "Complete", Messages: messages, SystemInstruction: systemInstruction})
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *MockClient) CompleteJSON(ctx context.Context, prompt, systemInstruction string, out any) error {
	m.record(ClientCall{Method: "CompleteJSON", Prompt: prompt, SystemInstruction: systemInstruction})
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	return json.Unmarshal([]byte(m.response), out)
}

func (m *MockClient) Stream(ctx context.Context, messages []llm.Message, systemInstruction string, onChunk llm.ChunkFunc) error {
	m.record(ClientCall{Method: "Stream", Messages: messages, SystemInstruction: systemInstruction})
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	chunks := m.streamChunks
	err := m.err
	m.mu.Unlock()
	for _, c := range chunks {
		onChunk(c)
	}
	return err
}

func (m *MockClient) Model() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

func (m *MockClient) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// Calls returns a copy of every recorded invocation.
func (m *MockClient) Calls() []ClientCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ClientCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockClient) record(c ClientCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *MockClient) wait(ctx context.Context) error {
	m.mu.Lock()
	d := m.delay
	m.mu.Unlock()
	if d == 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
