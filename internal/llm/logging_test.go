package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/hallugen/internal/store"
)

type recordingEventRepo struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func (r *recordingEventRepo) QueryLLMEvents(context.Context, store.QueryOpts) ([]store.LLMRequestEvent, error) {
	return nil, nil
}

func (r *recordingEventRepo) GetLLMEvent(context.Context, int) (*store.LLMRequestEvent, error) {
	return nil, nil
}

func (r *recordingEventRepo) LLMUsageByPurpose(context.Context) ([]store.UsageStat, error) {
	return nil, nil
}

func (r *recordingEventRepo) LLMUsageByModel(context.Context) ([]store.ModelUsage, error) {
	return nil, nil
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(MockResponse{
		Content: "Rayleigh scattering.",
		Usage:   Usage{InputTokens: 12, OutputTokens: 4},
	})
	p := WithLogging(mock, "mock", repo)

	ctx := WithRunID(WithPurpose(context.Background(), PurposeControlledResponse), "run-7")
	_, err := p.Generate(ctx, Request{
		System:   "Answer briefly.",
		Messages: []Message{{Role: RoleUser, Content: "Why is the sky blue?"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.RunID != "run-7" || ev.Purpose != "controlled-response" || ev.Provider != "mock" {
		t.Fatalf("unexpected event tags: %+v", ev)
	}
	if !ev.Success || ev.InputTokens != 12 || ev.OutputTokens != 4 {
		t.Fatalf("unexpected event data: %+v", ev)
	}
	if ev.ResponseBody != "Rayleigh scattering." {
		t.Fatalf("unexpected response body %q", ev.ResponseBody)
	}
	if !strings.Contains(ev.RequestBody, "[system]\nAnswer briefly.") {
		t.Fatalf("request body missing system prompt: %q", ev.RequestBody)
	}
}

func TestLoggingProvider_RecordsFailureAndIgnoresRepoErrors(t *testing.T) {
	repo := &recordingEventRepo{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("dial tcp")}})
	p := WithLogging(mock, "mock", repo)

	_, err := p.Generate(context.Background(), Request{JSONMode: true})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected provider error to pass through, got %v", err)
	}
	if len(repo.events) != 1 || repo.events[0].Success {
		t.Fatalf("expected one failed event, got %+v", repo.events)
	}
	if !strings.Contains(repo.events[0].ErrorMessage, "dial tcp") {
		t.Fatalf("unexpected error message %q", repo.events[0].ErrorMessage)
	}
	if !strings.Contains(repo.events[0].RequestBody, "[json mode]") {
		t.Fatalf("expected json mode marker, got %q", repo.events[0].RequestBody)
	}
}

func TestLoggingProvider_NilRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Content: "ok"}), "mock", nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock model ID, got %q", p.ModelID())
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*LoggingProvider); !ok {
		t.Fatalf("expected logging wrapper without a timeout, got %T", p)
	}

	p, err = NewProvider(context.Background(), Config{Provider: "mock", Timeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*timeoutProvider); !ok {
		t.Fatalf("expected timeout wrapper, got %T", p)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock model ID, got %q", p.ModelID())
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: "openai"}, nil); err == nil {
		t.Fatal("expected error for missing key")
	}
}
