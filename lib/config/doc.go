// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the ATM client and
// the mock bank.
//
// Configuration is a single YAML file named by:
//   - the --config flag passed to the command, or
//   - the ATM_CONFIG environment variable.
//
// When neither is given, [Resolve] returns [Default]: a development
// kiosk that persists its session under ~/.local/state/atm and talks
// to a mock bank on 127.0.0.1:8000. Environment variables never
// override individual values; they are only expanded inside path
// values (${HOME}, ${ATM_ROOT}, ${VAR:-default}).
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when the environment
// matches:
//
//	environment: production
//	api:
//	  base_url: https://bank.example.com
//	storage:
//	  backend: sqlite
//	  path: ${ATM_ROOT}/session.db
//	  seal_key_file: /etc/atm/session.agekey
//	production:
//	  log:
//	    level: warn
package config
