// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package takeout

import (
	"context"

	"github.com/netSkope/gchat-groups/internal/group"
	"go.uber.org/zap"
)

// Reporter receives the human-facing progress of a run.
type Reporter interface {
	FoundChatRoot(path string)
	GroupsExcluded(err error)
	Failure(msg string)
}

// Pipeline locates the export folders and aggregates the groups found there.
type Pipeline struct {
	aggregator *group.Aggregator
	reporter   Reporter
	logger     *zap.Logger
}

// NewPipeline creates a new Pipeline.
func NewPipeline(aggregator *group.Aggregator, reporter Reporter, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		aggregator: aggregator,
		reporter:   reporter,
		logger:     logger,
	}
}

// Run locates folderLocation and extracts every group under it.
//
// A missing or unusable groups folder yields an empty collection and no error.
// Any other failure is reported, classified, and returned with a nil collection.
func (p *Pipeline) Run(ctx context.Context, folderLocation string) (group.Collection, error) {
	root, err := Locate(folderLocation)
	if err != nil && !IsRecoverable(err) {
		p.fail("Failed to locate chat folder", err)
		return nil, err
	}

	p.logger.Info("Found chat folder", zap.String("chat_root", root.ChatRoot))
	p.reporter.FoundChatRoot(root.ChatRoot)

	if err != nil {
		p.logger.Warn("Groups folder unavailable, excluding groups",
			zap.String("groups_root", root.GroupsRoot),
			zap.Error(err))
		p.reporter.GroupsExcluded(err)
		return group.Collection{}, nil
	}

	groups, err := p.aggregator.Aggregate(ctx, root.GroupsRoot)
	if err != nil {
		p.fail("Failed to extract groups", err)
		return nil, err
	}
	return groups, nil
}

func (p *Pipeline) fail(msg string, err error) {
	p.logger.Error(msg,
		zap.Stringer("category", Classify(err)),
		zap.Error(err))
	p.reporter.Failure(Remediation(err))
}
