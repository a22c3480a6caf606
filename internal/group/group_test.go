// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package group

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func makeGroupsRoot(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		if err := os.Mkdir(filepath.Join(root, name), 0755); err != nil {
			t.Fatalf("failed to create group folder: %v", err)
		}
	}
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// recordingReporter collects reporter callbacks.
type recordingReporter struct {
	mu       sync.Mutex
	finished []string
	summary  []string
}

func (r *recordingReporter) GroupFinished(rec *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, rec.Name)
}

func (r *recordingReporter) AllGroupsFinished(groups Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = groups.Names()
}

func TestFileExtractor_Extract(t *testing.T) {
	root := makeGroupsRoot(t, "Space AAAA", "DM BBBB", "Broken")
	writeFile(t, filepath.Join(root, "Space AAAA", groupInfoFile),
		`{"name":"TeamA","members":[{"name":"Ann","email":"ann@example.com","user_type":"Human"}]}`)
	writeFile(t, filepath.Join(root, "Space AAAA", messagesFile),
		`{"messages":[{"creator":{"name":"Ann","email":"ann@example.com","user_type":"Human"},"created_date":"Monday, January 2, 2023 at 3:04:05 PM UTC","text":"hi","topic_id":"t1"}]}`)
	writeFile(t, filepath.Join(root, "DM BBBB", groupInfoFile), `{"members":[]}`)
	writeFile(t, filepath.Join(root, "Broken", groupInfoFile), `{"name":`)

	e := NewFileExtractor(zaptest.NewLogger(t))
	ctx := context.Background()

	t.Run("named space with messages", func(t *testing.T) {
		rec, err := e.Extract(ctx, root, "Space AAAA")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if rec.Name != "TeamA" {
			t.Errorf("expected TeamA, got %s", rec.Name)
		}
		if len(rec.Members) != 1 || rec.Members[0].Email != "ann@example.com" {
			t.Errorf("unexpected members %+v", rec.Members)
		}
		if len(rec.Messages) != 1 || rec.Messages[0].Text != "hi" {
			t.Errorf("unexpected messages %+v", rec.Messages)
		}
		if rec.Folder != filepath.Join(root, "Space AAAA") {
			t.Errorf("unexpected folder %s", rec.Folder)
		}
	})

	t.Run("unnamed dm without messages falls back to folder name", func(t *testing.T) {
		rec, err := e.Extract(ctx, root, "DM BBBB")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if rec.Name != "DM BBBB" {
			t.Errorf("expected folder name, got %s", rec.Name)
		}
		if rec.Messages == nil || len(rec.Messages) != 0 {
			t.Errorf("expected empty messages, got %+v", rec.Messages)
		}
	})

	t.Run("malformed group info", func(t *testing.T) {
		if _, err := e.Extract(ctx, root, "Broken"); err == nil {
			t.Error("Extract() should fail on malformed group_info.json")
		}
	})

	t.Run("missing folder", func(t *testing.T) {
		if _, err := e.Extract(ctx, root, "Nope"); err == nil {
			t.Error("Extract() should fail on missing folder")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := e.Extract(cctx, root, "Space AAAA"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestAggregate_PreservesListingOrder(t *testing.T) {
	names := []string{"TeamA", "TeamB", "TeamC", "TeamD"}
	root := makeGroupsRoot(t, names...)

	// Earlier entries finish later
	delays := map[string]time.Duration{
		"TeamA": 40 * time.Millisecond,
		"TeamB": 30 * time.Millisecond,
		"TeamC": 10 * time.Millisecond,
		"TeamD": 0,
	}
	ext := ExtractorFunc(func(ctx context.Context, groupsRoot, entry string) (*Record, error) {
		time.Sleep(delays[entry])
		return &Record{Name: entry, Folder: filepath.Join(groupsRoot, entry)}, nil
	})

	for _, limit := range []int{0, 1, 2} {
		rep := &recordingReporter{}
		agg := NewAggregator(ext, limit, rep, zaptest.NewLogger(t))

		groups, err := agg.Aggregate(context.Background(), root)
		if err != nil {
			t.Fatalf("limit %d: Aggregate() error = %v", limit, err)
		}
		if !reflect.DeepEqual(groups.Names(), names) {
			t.Errorf("limit %d: expected %v, got %v", limit, names, groups.Names())
		}
		if !reflect.DeepEqual(rep.finished, names) {
			t.Errorf("limit %d: progress order %v, want %v", limit, rep.finished, names)
		}
		if !reflect.DeepEqual(rep.summary, names) {
			t.Errorf("limit %d: summary %v, want %v", limit, rep.summary, names)
		}
	}
}

func TestAggregate_EachEntryOnce(t *testing.T) {
	root := makeGroupsRoot(t, "a", "b", "c")
	// Non-directory entries are handed to the extractor as well
	writeFile(t, filepath.Join(root, "stray.txt"), "x")

	var mu sync.Mutex
	calls := map[string]int{}
	ext := ExtractorFunc(func(ctx context.Context, groupsRoot, entry string) (*Record, error) {
		mu.Lock()
		calls[entry]++
		mu.Unlock()
		return &Record{Name: entry}, nil
	})

	groups, err := NewAggregator(ext, 0, nil, zaptest.NewLogger(t)).Aggregate(context.Background(), root)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(groups) != 4 {
		t.Errorf("expected 4 records, got %d", len(groups))
	}
	for _, name := range []string{"a", "b", "c", "stray.txt"} {
		if calls[name] != 1 {
			t.Errorf("expected 1 call for %s, got %d", name, calls[name])
		}
	}
}

func TestAggregate_RespectsLimit(t *testing.T) {
	root := makeGroupsRoot(t, "g1", "g2", "g3", "g4", "g5", "g6")

	var inFlight, peak int32
	ext := ExtractorFunc(func(ctx context.Context, groupsRoot, entry string) (*Record, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return &Record{Name: entry}, nil
	})

	if _, err := NewAggregator(ext, 2, nil, zaptest.NewLogger(t)).Aggregate(context.Background(), root); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if peak > 2 {
		t.Errorf("expected at most 2 extractions in flight, saw %d", peak)
	}
}

func TestAggregate_FailureIsAllOrNothing(t *testing.T) {
	root := makeGroupsRoot(t, "TeamA", "TeamB", "TeamC")
	boom := errors.New("boom")

	var cancelled atomic.Bool
	ext := ExtractorFunc(func(ctx context.Context, groupsRoot, entry string) (*Record, error) {
		switch entry {
		case "TeamA":
			return &Record{Name: entry}, nil
		case "TeamB":
			time.Sleep(5 * time.Millisecond)
			return nil, boom
		default:
			select {
			case <-ctx.Done():
				cancelled.Store(true)
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return &Record{Name: entry}, nil
			}
		}
	})

	rep := &recordingReporter{}
	groups, err := NewAggregator(ext, 0, rep, zaptest.NewLogger(t)).Aggregate(context.Background(), root)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "TeamB") {
		t.Errorf("error should name the failing group, got %v", err)
	}
	if groups != nil {
		t.Errorf("expected no collection, got %v", groups.Names())
	}
	if !cancelled.Load() {
		t.Error("in-flight extraction should observe cancellation")
	}
	if rep.summary != nil {
		t.Errorf("summary should not be reported on failure, got %v", rep.summary)
	}
}

func TestAggregate_NilRecord(t *testing.T) {
	root := makeGroupsRoot(t, "a")
	ext := ExtractorFunc(func(ctx context.Context, groupsRoot, entry string) (*Record, error) {
		return nil, nil
	})
	if _, err := NewAggregator(ext, 0, nil, zaptest.NewLogger(t)).Aggregate(context.Background(), root); err == nil {
		t.Error("Aggregate() should fail when the extractor returns no record")
	}
}

func TestAggregate_EmptyAndMissing(t *testing.T) {
	ext := ExtractorFunc(func(ctx context.Context, groupsRoot, entry string) (*Record, error) {
		t.Errorf("unexpected extraction of %s", entry)
		return nil, nil
	})
	agg := NewAggregator(ext, 0, nil, zaptest.NewLogger(t))

	groups, err := agg.Aggregate(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected empty collection, got %d", len(groups))
	}

	if _, err := agg.Aggregate(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Aggregate() should propagate listing failures")
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	root := makeGroupsRoot(t, "x", "y", "z")
	for _, name := range []string{"x", "y", "z"} {
		writeFile(t, filepath.Join(root, name, groupInfoFile), `{"name":"`+strings.ToUpper(name)+`"}`)
	}
	agg := NewAggregator(NewFileExtractor(zaptest.NewLogger(t)), 0, nil, zaptest.NewLogger(t))

	first, err := agg.Aggregate(context.Background(), root)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	second, err := agg.Aggregate(context.Background(), root)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if !reflect.DeepEqual(first.Names(), second.Names()) {
		t.Errorf("runs differ: %v vs %v", first.Names(), second.Names())
	}
	if !reflect.DeepEqual(first.Names(), []string{"X", "Y", "Z"}) {
		t.Errorf("unexpected names %v", first.Names())
	}
}
