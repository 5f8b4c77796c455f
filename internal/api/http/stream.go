package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ZenCode/backend/internal/api/middleware"
	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/generation"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/utils"
)

// Stream event types
const (
	EventStage  = "stage"
	EventResult = "result"
	EventError  = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Stream upgrades to a websocket and serves generate requests over it.
// Each request gets one stage event per pipeline stage followed by a result
// or error event. Browsers cannot set X-User-ID on the upgrade, so a
// user_id query parameter takes precedence.
func (h *Handlers) Stream(c *gin.Context) {
	userID := middleware.UserID(c)
	if q := c.Query("user_id"); q != "" {
		if err := utils.ValidateID(q, "user_id", true); err != nil {
			respondKind(c, generation.KindInvalidRequest, err)
			return
		}
		userID = q
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	w := &streamWriter{conn: conn, logger: h.Logger}
	if !h.live.add(conn, cancel) {
		w.fail(generation.KindGenerationFailure, errShuttingDown)
		return
	}
	defer h.live.remove(conn)

	h.Metrics.IncWSConnections()
	defer h.Metrics.DecWSConnections()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		var req types.GenerateRequest
		if err := sonic.Unmarshal(data, &req); err != nil {
			w.fail(generation.KindInvalidRequest, err)
			continue
		}
		if err := utils.ValidateGenerateRequest(req); err != nil {
			w.fail(generation.KindInvalidRequest, err)
			continue
		}

		greq := generation.FromAPI(req, userID)
		greq.OnStage = func(stage string) {
			w.send(types.StreamEvent{Type: EventStage, Stage: stage})
		}

		resp, err := h.Generator.Generate(ctx, greq)
		if err != nil {
			w.fail(generation.KindOf(err), err)
			continue
		}
		payload := resp.Payload()
		w.send(types.StreamEvent{Type: EventResult, Result: &payload})
	}
}

var errShuttingDown = errors.New("server is shutting down")

// liveStreams tracks open websocket streams. http.Server.Shutdown does not
// wait for hijacked connections, so they are ended here.
type liveStreams struct {
	wg      sync.WaitGroup
	mu      sync.Mutex
	closing bool
	cancels map[*websocket.Conn]context.CancelFunc
}

func newLiveStreams() *liveStreams {
	return &liveStreams{cancels: make(map[*websocket.Conn]context.CancelFunc)}
}

func (l *liveStreams) add(conn *websocket.Conn, cancel context.CancelFunc) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closing {
		return false
	}
	l.cancels[conn] = cancel
	l.wg.Add(1)
	return true
}

func (l *liveStreams) remove(conn *websocket.Conn) {
	l.mu.Lock()
	delete(l.cancels, conn)
	l.mu.Unlock()
	l.wg.Done()
}

// Drain refuses new streams, cancels the generations of open ones and
// waits until every stream handler has returned.
func (h *Handlers) Drain(ctx context.Context) error {
	h.live.mu.Lock()
	h.live.closing = true
	for conn, cancel := range h.live.cancels {
		cancel()
		_ = conn.Close()
	}
	h.live.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.live.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("websocket streams still open: %w", ctx.Err())
	}
}

// streamWriter serializes frames onto one connection
type streamWriter struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	logger *zap.Logger
}

func (w *streamWriter) send(ev types.StreamEvent) {
	ev.Timestamp = time.Now().Unix()
	data, err := sonic.Marshal(ev)
	if err != nil {
		w.logger.Error("Failed to encode stream event", zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		w.logger.Debug("WebSocket write failed", zap.Error(err))
	}
}

func (w *streamWriter) fail(kind generation.Kind, err error) {
	w.send(types.StreamEvent{Type: EventError, Error: err.Error(), Kind: string(kind)})
}
