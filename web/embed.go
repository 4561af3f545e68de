// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package web contains the embedded renderer page served by the bridge host.
package web

import "embed"

//go:embed index.html bridge.js bridge.css

// Assets contains the embedded renderer files.
var Assets embed.FS
