// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for sumy.
//
// # Key Types
//
//   - Config: complete configuration, one struct per TOML section
//   - APIConfig: query service endpoint and throttling
//   - AuthConfig: identity file and token verification
//   - HistoryConfig: conversation summary backend
//   - SessionConfig: chat session behavior
//   - LogConfig: zap logger settings
//   - UIConfig: terminal rendering options
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SUMY_*), including those set by a .env file
//   - ~/.sumy/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := sumiller.NewClientWithConfig(&sumiller.ClientConfig{
//	    BaseURL: cfg.API.BaseURL,
//	    Timeout: cfg.API.Timeout(),
//	})
package config
