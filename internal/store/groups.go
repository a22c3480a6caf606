// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/netSkope/gchat-groups/internal/group"
	"go.uber.org/zap"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// GroupStore writes aggregated groups to a MySQL/MariaDB table.
// Rows are keyed by run ID and position, so one run keeps its collection order.
type GroupStore struct {
	client *SQLClient
	table  string
	logger *zap.Logger
}

// NewGroupStore creates a GroupStore for table.
func NewGroupStore(client *SQLClient, table string, logger *zap.Logger) (*GroupStore, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	return &GroupStore{client: client, table: table, logger: logger}, nil
}

// EnsureSchema creates the table if it does not exist.
func (s *GroupStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := s.client.context(ctx)
	defer cancel()

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"run_id VARCHAR(36) NOT NULL, "+
		"position INT NOT NULL, "+
		"name VARCHAR(512) NOT NULL, "+
		"folder VARCHAR(1024) NOT NULL, "+
		"member_count INT NOT NULL, "+
		"message_count INT NOT NULL, "+
		"members LONGTEXT NOT NULL, "+
		"created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, "+
		"PRIMARY KEY (run_id, position)"+
		") DEFAULT CHARSET=utf8mb4", s.table)
	if _, err := s.client.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// SaveGroups writes all groups for runID in one transaction.
func (s *GroupStore) SaveGroups(ctx context.Context, runID string, groups group.Collection) error {
	ctx, cancel := s.client.context(ctx)
	defer cancel()

	tx, err := s.client.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("INSERT INTO `%s` (run_id, position, name, folder, member_count, message_count, members) "+
		"VALUES (?, ?, ?, ?, ?, ?, ?) "+
		"ON DUPLICATE KEY UPDATE name = VALUES(name), folder = VALUES(folder), "+
		"member_count = VALUES(member_count), message_count = VALUES(message_count), members = VALUES(members)", s.table)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range groups {
		var members []byte
		members, err = json.Marshal(rec.Members)
		if err != nil {
			return fmt.Errorf("failed to encode members of %s: %w", rec.Name, err)
		}
		if _, err = stmt.ExecContext(ctx, runID, i, rec.Name, rec.Folder, len(rec.Members), len(rec.Messages), string(members)); err != nil {
			return fmt.Errorf("failed to insert group %s: %w", rec.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Info("Saved groups to database",
		zap.String("run_id", runID),
		zap.String("table", s.table),
		zap.Int("count", len(groups)))
	return nil
}

// GroupNames returns the group names stored for runID in collection order.
func (s *GroupStore) GroupNames(ctx context.Context, runID string) ([]string, error) {
	ctx, cancel := s.client.context(ctx)
	defer cancel()

	rows, err := s.client.db.QueryContext(ctx,
		fmt.Sprintf("SELECT name FROM `%s` WHERE run_id = ? ORDER BY position", s.table), runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
