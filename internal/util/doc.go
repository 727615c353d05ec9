// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by sumy packages.
//
// # Key Functions
//
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: truncation by terminal display cells
//   - OneLine: folds whitespace runs into single spaces
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateWidth(util.OneLine(firstQuestion), 50)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
