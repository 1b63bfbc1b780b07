package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestActivityWorker_ProcessesJob(t *testing.T) {
	recorder := &mockRecorder{}
	w := NewActivityWorker(recorder, testLogger(t), 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		w.Run(ctx)
		close(done)
	}()

	w.Enqueue(&ActivityJob{Action: "entity.create", ResourceType: "entity", ResourceID: "e1", Actor: "u1"})

	deadline := time.Now().Add(time.Second)
	for len(recorder.getCalls()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	calls := recorder.getCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 activity call, got %d", len(calls))
	}

	if calls[0].Action != "entity.create" || calls[0].ResourceID != "e1" || calls[0].Actor != "u1" {
		t.Errorf("unexpected job: %+v", calls[0])
	}
}

func TestActivityWorker_DropsWhenFull(t *testing.T) {
	w := NewActivityWorker(&mockRecorder{}, testLogger(t), 2)

	w.Enqueue(&ActivityJob{Action: "a"})
	w.Enqueue(&ActivityJob{Action: "b"})

	done := make(chan struct{})
	go func() {
		w.Enqueue(&ActivityJob{Action: "c"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked when queue was full")
	}

	if len(w.jobs) != 2 {
		t.Errorf("queue len = %d, want 2", len(w.jobs))
	}
}

func TestActivityWorker_DrainsOnShutdown(t *testing.T) {
	recorder := &mockRecorder{}
	w := NewActivityWorker(recorder, testLogger(t), 100)

	for range 5 {
		w.Enqueue(&ActivityJob{Action: "plan.update"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	if got := len(recorder.getCalls()); got != 5 {
		t.Errorf("drained %d jobs, want 5", got)
	}
}

func TestActivityWorker_RecorderErrorDoesNotStop(t *testing.T) {
	recorder := &mockRecorder{err: errors.New("db down")}
	w := NewActivityWorker(recorder, testLogger(t), 10)

	w.Enqueue(&ActivityJob{Action: "a"})
	w.Enqueue(&ActivityJob{Action: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	if got := len(recorder.getCalls()); got != 2 {
		t.Errorf("processed %d jobs, want 2", got)
	}
}

func TestNewActivityWorker_DefaultQueueSize(t *testing.T) {
	w := NewActivityWorker(&mockRecorder{}, testLogger(t), 0)

	if cap(w.jobs) != defaultActivityQueueSize {
		t.Errorf("cap = %d, want %d", cap(w.jobs), defaultActivityQueueSize)
	}
}
