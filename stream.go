package main

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fullstacknyc/portfolio/internal/typewriter"
)

const (
	streamKeepAlive = 15 * time.Second
	wsWriteTimeout  = 5 * time.Second
)

// frame is the wire form of a headline state.
type frame struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Phase    string `json:"phase"`
	Deleting bool   `json:"deleting"`
	Cursor   bool   `json:"cursor"`
}

func newFrame(st typewriter.State) frame {
	return frame{
		Index:    st.Index,
		Text:     st.Text,
		Phase:    st.Phase.String(),
		Deleting: st.IsDeleting(),
		Cursor:   st.CursorVisible,
	}
}

// latestOnly keeps only the newest state in ch. A slow client skips frames
// instead of stalling the animator. The animator serializes observer calls,
// so the send after the drain never blocks.
func latestOnly(ch chan typewriter.State) typewriter.Observer {
	return func(st typewriter.State) {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

// startAnimator mounts a headline animator for the requesting visitor.
func (s *server) startAnimator(c *gin.Context) (*typewriter.Animator, <-chan typewriter.State, error) {
	seq, err := s.systems.Sequence(c.Request.Context(), visitorID(c))
	if err != nil {
		return nil, nil, err
	}
	frames := make(chan typewriter.State, 1)
	anim, err := typewriter.New(seq,
		typewriter.WithScheduler(s.clock),
		typewriter.WithObserver(latestOnly(frames)),
	)
	if err != nil {
		return nil, nil, err
	}
	anim.Start()
	return anim, frames, nil
}

// handleStream sends headline frames as server-sent events until the client
// goes away.
func (s *server) handleStream(c *gin.Context) {
	anim, frames, err := s.startAnimator(c)
	if err != nil {
		log.Printf("Error starting headline stream: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start stream"})
		return
	}
	defer anim.Stop()

	gauge := s.metrics.activeStreams.WithLabelValues("sse")
	gauge.Inc()
	defer gauge.Dec()
	sent := s.metrics.frames.WithLabelValues("sse")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case st := <-frames:
			c.SSEvent("frame", newFrame(st))
			sent.Inc()
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// handleWebSocket sends the same frames as JSON messages over a WebSocket.
func (s *server) handleWebSocket(c *gin.Context) {
	anim, frames, err := s.startAnimator(c)
	if err != nil {
		log.Printf("Error starting headline socket: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start stream"})
		return
	}
	defer anim.Stop()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	gauge := s.metrics.activeStreams.WithLabelValues("websocket")
	gauge.Inc()
	defer gauge.Dec()
	sent := s.metrics.frames.WithLabelValues("websocket")

	// The client never sends anything we use; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case st := <-frames:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(newFrame(st)); err != nil {
				return
			}
			sent.Inc()
		case <-closed:
			return
		case <-c.Request.Context().Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteTimeout))
			return
		}
	}
}
