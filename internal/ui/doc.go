// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the interactive terminal diff viewer.
//
// The viewer is a bubbletea model around a bubbles viewport. It drives a
// termrender.Renderer through a bridge.Bridge exactly like a browser page
// would be driven, and receives frames and renderer events through a Relay.
//
// # Key Types
//
//   - Model: bubbletea model with split/unified, wrap and theme toggles
//   - Relay: forwards renderer callbacks into a running tea.Program
//   - KeyMap: the viewer's key bindings
//
// # Usage
//
//	relay := &ui.Relay{}
//	var b *bridge.Bridge
//	r := termrender.New(func(raw []byte) { b.HandleMessage(raw) },
//	    termrender.WithFrameHandler(relay.FrameHandler()))
//	b = bridge.New(r, bridge.WithHandlers(relay.Handlers()))
//	m := ui.New(result, b, r, ui.Options{})
//	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
//	relay.Attach(p)
//	r.Start(ctx)
//	_, err := p.Run()
package ui
