package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/promptrelay/internal/inference"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func sampleResolution() inference.Resolution {
	return inference.Resolution{
		ID:        uuid.MustParse("7b6b2f0e-3f3a-4f39-9d7e-2d4f5b1c9a10"),
		Question:  "q",
		Answer:    "a",
		Candidate: "beta",
		Attempts: []inference.Attempt{
			{Candidate: "alpha", Kind: inference.Unavailable, Status: 503, Latency: 120 * time.Millisecond},
			{Candidate: "beta", Kind: inference.Answered, Status: 200, Latency: 2 * time.Second},
		},
	}
}

func TestRecordAttempts_EnqueuesPayload(t *testing.T) {
	fe := &fakeEnqueuer{}
	c := NewClientWith(fe)

	if err := c.RecordAttempts(context.Background(), 9, sampleResolution()); err != nil {
		t.Fatalf("RecordAttempts: %v", err)
	}
	if len(fe.tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(fe.tasks))
	}

	task := fe.tasks[0]
	if task.Type() != TypeAttemptsRecord {
		t.Errorf("type = %q", task.Type())
	}

	var p AttemptsRecordPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.PromptID != 9 || p.ResolutionID != "7b6b2f0e-3f3a-4f39-9d7e-2d4f5b1c9a10" || len(p.Attempts) != 2 {
		t.Fatalf("payload = %+v", p)
	}
	first := p.Attempts[0]
	if first.Position != 0 || first.Candidate != "alpha" || first.Outcome != "unavailable" || first.Status != 503 || first.LatencyMs != 120 {
		t.Errorf("attempt[0] = %+v", first)
	}
	if p.Attempts[1].Outcome != "answered" || p.Attempts[1].Position != 1 {
		t.Errorf("attempt[1] = %+v", p.Attempts[1])
	}
}

func TestRecordAttempts_NoAttempts(t *testing.T) {
	fe := &fakeEnqueuer{}
	if err := NewClientWith(fe).RecordAttempts(context.Background(), 1, inference.Resolution{}); err != nil {
		t.Fatalf("RecordAttempts: %v", err)
	}
	if len(fe.tasks) != 0 {
		t.Errorf("tasks = %d, want 0", len(fe.tasks))
	}
}

func TestRecordAttempts_EnqueueError(t *testing.T) {
	fe := &fakeEnqueuer{err: errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")}
	if err := NewClientWith(fe).RecordAttempts(context.Background(), 1, sampleResolution()); err == nil {
		t.Fatal("expected enqueue error")
	}
}
