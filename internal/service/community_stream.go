package service

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/observability"
)

const communityPingInterval = 30 * time.Second

// CommunityStreamOptions wraps metadata extracted during the HTTP upgrade.
type CommunityStreamOptions struct {
	Actor       Actor
	CommunityID uint
	Context     context.Context
}

// CommunityStreamer pushes community chat over a websocket connection.
type CommunityStreamer interface {
	ServeConnection(conn *websocket.Conn, opts CommunityStreamOptions)
}

// ServeConnection blocks until the client disconnects. Frames received from the
// client are treated as chat posts; every message in the community is pushed back.
func (s *communityService) ServeConnection(conn *websocket.Conn, opts CommunityStreamOptions) {
	if s.realtime == nil {
		_ = conn.Close()
		return
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	updates, unsubscribe := s.realtime.Subscribe(opts.CommunityID)
	observability.ChatConnectionsTotal().Inc()

	// The writer must be gone before this returns: the connection is released
	// back to the upgrader as soon as the handler exits.
	done := make(chan struct{})
	writerDone := make(chan struct{})
	defer func() {
		close(done)
		_ = conn.Close()
		<-writerDone
		unsubscribe()
	}()

	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(communityPingInterval)
		defer ticker.Stop()
		for {
			select {
			case message, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.WriteJSON(message); err != nil {
					s.logger.Debug().Err(err).Msg("community write loop ended")
					_ = conn.Close()
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
					_ = conn.Close()
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		var payload dto.ChatPostRequest
		if err := conn.ReadJSON(&payload); err != nil {
			s.logger.Debug().Err(err).Uint("community_id", opts.CommunityID).Msg("community read loop ended")
			return
		}
		if _, err := s.PostMessage(ctx, opts.Actor.ID, opts.CommunityID, payload); err != nil {
			s.logger.Warn().Err(err).Uint("community_id", opts.CommunityID).Msg("failed to post message from stream")
		}
	}
}
