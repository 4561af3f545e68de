// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jeranaias/rigrun-diffs/internal/bridge"
	"github.com/jeranaias/rigrun-diffs/internal/model"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// ============================================================================
// WEBSOCKET TRANSPORT
// ============================================================================

// wsTransport writes bridge commands as JSON text frames.
type wsTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (t *wsTransport) Send(ctx context.Context, cmd bridge.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := bridge.MarshalCommand(cmd)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", cmd.Method, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// ============================================================================
// SESSION
// ============================================================================

// session is one connected renderer page showing one message.
type session struct {
	messageID string
	conn      *websocket.Conn
	bridge    *bridge.Bridge
	logger    *log.Logger
	cancel    context.CancelFunc

	mu       sync.Mutex
	result   model.DiffResult
	style    model.DiffStyle
	overflow model.OverflowMode
	theme    string
}

// show renders result through the change gate.
func (sess *session) show(result model.DiffResult) bridge.UpdateKind {
	sess.mu.Lock()
	sess.result = result
	view := sess.viewLocked()
	sess.mu.Unlock()
	return sess.bridge.Update(view)
}

// clear tears down the rendered diff after its message was removed.
func (sess *session) clear() {
	sess.mu.Lock()
	sess.result = model.InitialResult
	sess.mu.Unlock()
	sess.bridge.Cleanup()
}

// setTheme follows the page's color scheme.
func (sess *session) setTheme(isDark bool) {
	sess.mu.Lock()
	sess.theme = "light"
	if isDark {
		sess.theme = "dark"
	}
	if sess.result.IsInitial {
		sess.mu.Unlock()
		return
	}
	view := sess.viewLocked()
	sess.mu.Unlock()
	sess.bridge.Update(view)
}

func (sess *session) viewLocked() bridge.View {
	return bridge.View{
		Result:   sess.result,
		Style:    sess.style,
		Overflow: sess.overflow,
		Theme:    sess.theme,
	}
}

func (sess *session) close() {
	sess.cancel()
	_ = sess.conn.Close()
}

// handleBridge upgrades to a websocket and runs one renderer session.
//
// Query parameters: message (required), style, overflow and theme.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	messageID := q.Get("message")
	if messageID == "" {
		s.writeError(w, http.StatusBadRequest, "missing message parameter")
		return
	}
	style := s.cfg.DiffStyle()
	if v := q.Get("style"); v != "" {
		parsed, err := model.ParseDiffStyle(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		style = parsed
	}
	overflow := s.cfg.Overflow()
	if v := q.Get("overflow"); v != "" {
		parsed, err := model.ParseOverflowMode(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		overflow = parsed
	}
	theme := "dark"
	if q.Get("theme") == "light" {
		theme = "light"
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.Printf("BRIDGE_UPGRADE_FAILED | message=%s error=%v", messageID, err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		messageID: messageID,
		conn:      conn,
		logger:    s.logger,
		cancel:    cancel,
		result:    model.InitialResult,
		style:     style,
		overflow:  overflow,
		theme:     theme,
	}
	sess.bridge = bridge.New(&wsTransport{conn: conn},
		bridge.WithLogger(s.logger),
		bridge.WithContext(ctx),
		bridge.WithRenderSettings(s.renderSettings()),
		bridge.WithHandlers(bridge.Handlers{
			OnThemeChanged: sess.setTheme,
			OnLineClick: func(line int, side string) {
				s.logger.Printf("BRIDGE_LINE_CLICKED | message=%s line=%d side=%s", messageID, line, side)
			},
		}),
	)

	s.addSession(sess)
	s.logger.Printf("BRIDGE_CONNECTED | message=%s session=%s client_ip=%s", messageID, sess.bridge.Session(), GetClientIP(r))
	defer func() {
		s.removeSession(sess)
		sess.close()
		s.logger.Printf("BRIDGE_DISCONNECTED | message=%s session=%s", messageID, sess.bridge.Session())
	}()

	// Queued until the page sends bridgeReady.
	if st := s.cache.Get(messageID); st.HasContent() {
		sess.show(st.Result)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Printf("BRIDGE_READ_FAILED | message=%s error=%v", messageID, err)
			}
			return
		}
		sess.bridge.HandleMessage(data)
	}
}

func (s *Server) renderSettings() bridge.RenderSettings {
	rc := s.cfg.Renderer
	return bridge.RenderSettings{
		ThemeDark:           rc.ThemeDark,
		ThemeLight:          rc.ThemeLight,
		EnableLineSelection: rc.EnableLineSelection,
		DetectLanguage:      rc.DetectLanguage,
	}
}
