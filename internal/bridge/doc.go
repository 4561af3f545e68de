// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bridge is the host side of the renderer protocol.
//
// A Bridge encodes diff results into RenderInput documents, queues commands
// until the renderer reports ready, decodes the renderer's events and turns
// click coordinates into overlay positions. Update is the change gate that
// picks the lightest command for a new View.
//
// # Key Types
//
//   - Bridge: Per-session command queue and event router
//   - Transport: Anything that can deliver a Command (websocket, terminal renderer)
//   - RenderInput: Wire document for a full render, sent as base64 JSON
//   - Event: Decoded renderer message, with UnknownEvent as the fallback
//   - Surface: Geometry handle for click positioning, may be nil
//   - View: Desired renderer state passed to Update
//
// # Usage
//
//	b := bridge.New(transport, bridge.WithHandlers(bridge.Handlers{
//	    OnError: func(msg string) { log.Printf("RENDER_ERROR | message=%s", msg) },
//	}))
//	b.Update(bridge.View{Result: result, Style: model.StyleSplit, Overflow: model.OverflowScroll, Theme: "dark"})
//	// later, from the transport's read loop:
//	b.HandleMessage(frame)
package bridge
