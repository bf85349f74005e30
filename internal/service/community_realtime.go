package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/observability"
)

const communitySendBufferSize = 32

// CommunityRealtime fans chat messages out to local websocket subscribers and,
// through Redis pub/sub and NATS, to the other API nodes.
type CommunityRealtime struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger

	mu    sync.RWMutex
	rooms map[uint]map[*communitySubscriber]struct{}
}

type communitySubscriber struct {
	send chan dto.ChatMessageResponse
}

type communityEvent struct {
	Source  string                  `json:"source"`
	Message dto.ChatMessageResponse `json:"message"`
	SentAt  time.Time               `json:"sentAt"`
}

// NewCommunityRealtime builds the fan-out hub. Either transport may be nil.
func NewCommunityRealtime(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) *CommunityRealtime {
	redisChannel := ""
	natsSubject := ""
	if channelBase != "" {
		redisChannel = channelBase + ":community:chat"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".community.chat"
	}

	return &CommunityRealtime{
		redis:        redisClient,
		redisChannel: redisChannel,
		nats:         natsConn,
		natsSubject:  natsSubject,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "community_realtime").Logger(),
		rooms:        make(map[uint]map[*communitySubscriber]struct{}),
	}
}

// Start consumes events published by other nodes until ctx is cancelled.
func (r *CommunityRealtime) Start(ctx context.Context) {
	if r.redis != nil && r.redisChannel != "" {
		pubsub := r.redis.Subscribe(ctx, r.redisChannel)
		go r.consumeRedis(ctx, pubsub)
	}
	if r.nats != nil && r.natsSubject != "" {
		r.consumeNATS(ctx)
	}
}

// Subscribe registers a listener for a community. The returned func unsubscribes and closes the channel.
func (r *CommunityRealtime) Subscribe(communityID uint) (<-chan dto.ChatMessageResponse, func()) {
	sub := &communitySubscriber{send: make(chan dto.ChatMessageResponse, communitySendBufferSize)}

	r.mu.Lock()
	if _, ok := r.rooms[communityID]; !ok {
		r.rooms[communityID] = make(map[*communitySubscriber]struct{})
	}
	r.rooms[communityID][sub] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return sub.send, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if subs, ok := r.rooms[communityID]; ok {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(r.rooms, communityID)
				}
			}
			close(sub.send)
		})
	}
}

// Subscribers returns the number of local listeners for a community.
func (r *CommunityRealtime) Subscribers(communityID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[communityID])
}

// Deliver broadcasts locally and publishes the message for other nodes.
func (r *CommunityRealtime) Deliver(ctx context.Context, message dto.ChatMessageResponse) {
	r.broadcast(message)
	observability.ChatMessagesSent().WithLabelValues("local").Inc()
	if err := r.publish(ctx, message); err != nil {
		r.logger.Warn().Err(err).Uint("community_id", message.CommunityID).Msg("failed to publish community chat event")
	}
}

func (r *CommunityRealtime) broadcast(message dto.ChatMessageResponse) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for sub := range r.rooms[message.CommunityID] {
		select {
		case sub.send <- message:
		default:
			r.logger.Warn().Uint("community_id", message.CommunityID).Msg("dropping chat message for slow subscriber")
		}
	}
}

func (r *CommunityRealtime) publish(ctx context.Context, message dto.ChatMessageResponse) error {
	if (r.redis == nil || r.redisChannel == "") && (r.nats == nil || r.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(communityEvent{
		Source:  r.nodeID,
		Message: message,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if r.redis != nil && r.redisChannel != "" {
		if err := r.redis.Publish(ctx, r.redisChannel, payload).Err(); err != nil {
			return err
		}
	}
	if r.nats != nil && r.natsSubject != "" {
		if err := r.nats.Publish(r.natsSubject, payload); err != nil {
			return err
		}
	}
	return nil
}

func (r *CommunityRealtime) consumeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			r.logger.Error().Err(err).Msg("community redis subscription closed")
			return
		}
		r.handleEvent([]byte(msg.Payload))
	}
}

// consumeNATS uses a plain subscription so every node receives every event.
func (r *CommunityRealtime) consumeNATS(ctx context.Context) {
	sub, err := r.nats.Subscribe(r.natsSubject, func(msg *nats.Msg) {
		r.handleEvent(msg.Data)
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to subscribe to nats community subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to drain community nats subscription")
		}
	}()
}

func (r *CommunityRealtime) handleEvent(data []byte) {
	var event communityEvent
	if err := json.Unmarshal(data, &event); err != nil {
		r.logger.Warn().Err(err).Msg("invalid community chat event")
		return
	}
	if event.Source == r.nodeID {
		return
	}
	observability.ChatMessagesSent().WithLabelValues("remote").Inc()
	r.broadcast(event.Message)
}
