// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package termrender draws diffs in a terminal and speaks the renderer side
// of the bridge protocol.
//
// A Renderer implements bridge.Transport. Commands decode the same base64
// RenderInput a browser renderer would receive; the renderer answers with
// bridgeReady, ready, systemThemeChanged, lineClicked, selectionChanged and
// error events through the emit callback.
//
// # Key Types
//
//   - Renderer: Transport implementation with its own event goroutine
//   - Frame: One rendered view with its row count and scroll target
//
// # Usage
//
//	var b *bridge.Bridge
//	r := termrender.New(func(raw []byte) { b.HandleMessage(raw) },
//	    termrender.WithFrameHandler(func(f termrender.Frame) { fmt.Println(f.Text) }))
//	b = bridge.New(r)
//	r.Start(ctx)
//	b.Render(result, "dark", model.StyleSplit, model.OverflowScroll)
package termrender
