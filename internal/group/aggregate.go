// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package group

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reporter receives progress as groups are collected.
type Reporter interface {
	GroupFinished(rec *Record)
	AllGroupsFinished(groups Collection)
}

type nopReporter struct{}

func (nopReporter) GroupFinished(*Record)         {}
func (nopReporter) AllGroupsFinished(Collection) {}

// Aggregator extracts every group folder under a groups root concurrently.
type Aggregator struct {
	extractor   Extractor
	maxParallel int
	reporter    Reporter
	logger      *zap.Logger
}

// NewAggregator creates a new Aggregator. maxParallel <= 0 means no limit.
func NewAggregator(extractor Extractor, maxParallel int, reporter Reporter, logger *zap.Logger) *Aggregator {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Aggregator{
		extractor:   extractor,
		maxParallel: maxParallel,
		reporter:    reporter,
		logger:      logger,
	}
}

// slot holds one extraction result. rec is written before done is closed.
type slot struct {
	rec  *Record
	done chan struct{}
}

// Aggregate lists groupsRoot and extracts each entry exactly once.
//
// Records are returned in listing order regardless of completion order.
// The first failing extraction cancels the others and is returned; no partial
// collection is returned in that case.
func (a *Aggregator) Aggregate(ctx context.Context, groupsRoot string) (Collection, error) {
	entries, err := os.ReadDir(groupsRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups folder: %w", err)
	}

	a.logger.Info("Extracting groups",
		zap.String("groups_root", groupsRoot),
		zap.Int("entries", len(entries)),
		zap.Int("max_parallel", a.maxParallel))

	g, gctx := errgroup.WithContext(ctx)
	if a.maxParallel > 0 {
		g.SetLimit(a.maxParallel)
	}

	slots := make([]slot, len(entries))
	for i := range slots {
		slots[i].done = make(chan struct{})
	}

	// g.Go blocks while the limit is reached, so launching runs beside collection.
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, entry := range entries {
			s := &slots[i]
			name := entry.Name()
			g.Go(func() error {
				defer close(s.done)
				if err := gctx.Err(); err != nil {
					return err
				}
				rec, err := a.extractor.Extract(gctx, groupsRoot, name)
				if err != nil {
					a.logger.Error("Failed to extract group",
						zap.String("entry", name),
						zap.Error(err))
					return fmt.Errorf("failed to extract group %s: %w", name, err)
				}
				if rec == nil {
					return fmt.Errorf("failed to extract group %s: no record", name)
				}
				s.rec = rec
				return nil
			})
		}
	}()

	groups := make(Collection, 0, len(entries))
collect:
	for i := range slots {
		select {
		case <-slots[i].done:
		case <-gctx.Done():
			break collect
		}
		if slots[i].rec == nil {
			break collect
		}
		groups = a.collect(groups, slots[i].rec)
	}

	<-launched
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Every extraction succeeded; pick up anything left after an early break.
	for i := len(groups); i < len(slots); i++ {
		groups = a.collect(groups, slots[i].rec)
	}

	a.logger.Info("Finished extracting groups",
		zap.Int("count", len(groups)),
		zap.Strings("groups", groups.Names()))
	a.reporter.AllGroupsFinished(groups)

	return groups, nil
}

func (a *Aggregator) collect(groups Collection, rec *Record) Collection {
	a.logger.Info("Group extracted", zap.String("group", rec.Name))
	a.reporter.GroupFinished(rec)
	return append(groups, rec)
}
