// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package takeout

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	ChatFolderName   = "Google Chat"
	GroupsFolderName = "Groups"
)

// ExportRoot holds the folders derived from the configured export root.
// GroupsRoot is always a child of ChatRoot.
type ExportRoot struct {
	ChatRoot   string
	GroupsRoot string
}

// Resolve derives the export folders from the configured root.
// A relative root is resolved against the working directory.
func Resolve(configuredRoot string) (ExportRoot, error) {
	root, err := filepath.Abs(configuredRoot)
	if err != nil {
		return ExportRoot{}, fmt.Errorf("failed to resolve %s: %w", configuredRoot, err)
	}
	chatRoot := filepath.Join(root, ChatFolderName)
	return ExportRoot{
		ChatRoot:   chatRoot,
		GroupsRoot: filepath.Join(chatRoot, GroupsFolderName),
	}, nil
}

// Locate resolves configuredRoot and checks that both export folders are directories.
//
// A failure on the chat folder is fatal. A failure on the groups folder is returned
// as a recoverable *LocateError together with the resolved ExportRoot.
func Locate(configuredRoot string) (ExportRoot, error) {
	root, err := Resolve(configuredRoot)
	if err != nil {
		return ExportRoot{}, err
	}

	if err := checkDir(root.ChatRoot); err != nil {
		return ExportRoot{}, &LocateError{Path: root.ChatRoot, Err: err}
	}

	if err := checkDir(root.GroupsRoot); err != nil {
		return root, &LocateError{Path: root.GroupsRoot, Err: err, Recoverable: true}
	}

	return root, nil
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrNotADirectory
	}
	return nil
}
