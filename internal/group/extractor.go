// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package group

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	groupInfoFile = "group_info.json"
	messagesFile  = "messages.json"
)

// Extractor turns one entry under the groups folder into a Record.
type Extractor interface {
	Extract(ctx context.Context, groupsRoot, entry string) (*Record, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, groupsRoot, entry string) (*Record, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, groupsRoot, entry string) (*Record, error) {
	return f(ctx, groupsRoot, entry)
}

// FileExtractor reads group_info.json and messages.json from a group folder.
type FileExtractor struct {
	logger *zap.Logger
}

// NewFileExtractor creates a new FileExtractor.
func NewFileExtractor(logger *zap.Logger) *FileExtractor {
	return &FileExtractor{logger: logger}
}

// Extract reads the group folder <groupsRoot>/<entry>.
// group_info.json is required; messages.json is optional.
func (e *FileExtractor) Extract(ctx context.Context, groupsRoot, entry string) (*Record, error) {
	folder := filepath.Join(groupsRoot, entry)

	var info struct {
		Name    string   `json:"name"`
		Members []Member `json:"members"`
	}
	if err := readJSON(ctx, filepath.Join(folder, groupInfoFile), &info); err != nil {
		return nil, fmt.Errorf("failed to read group info: %w", err)
	}

	var msgs struct {
		Messages []Message `json:"messages"`
	}
	if err := readJSON(ctx, filepath.Join(folder, messagesFile), &msgs); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read messages: %w", err)
		}
		e.logger.Debug("Group has no messages file", zap.String("folder", folder))
	}

	// Direct messages carry no name
	name := info.Name
	if name == "" {
		name = entry
	}

	rec := &Record{
		Name:     name,
		Folder:   folder,
		Members:  info.Members,
		Messages: msgs.Messages,
	}
	if rec.Members == nil {
		rec.Members = []Member{}
	}
	if rec.Messages == nil {
		rec.Messages = []Message{}
	}

	e.logger.Debug("Extracted group",
		zap.String("group", rec.Name),
		zap.Int("members", len(rec.Members)),
		zap.Int("messages", len(rec.Messages)))

	return rec, nil
}

func readJSON(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
