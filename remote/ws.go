package remote

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/roostapp/roost-sync/logging"
	"github.com/roostapp/roost-sync/models"
)

// WSSubscriber streams realtime check-in batches over a WebSocket. Each
// frame is a JSON array of records; the callback runs on the reader
// goroutine, so it should hand off quickly (typically into
// reconcile.Engine.MergeIncremental).
type WSSubscriber struct {
	url   string
	token string
	log   logging.Logger

	dialer *websocket.Dialer
}

func NewWSSubscriber(url, token string, log logging.Logger) *WSSubscriber {
	if log == nil {
		log = logging.NewNop()
	}
	return &WSSubscriber{url: url, token: token, log: log, dialer: websocket.DefaultDialer}
}

// subscribeFrame is the first message sent after the dial, scoping the
// stream to the given users. An empty list subscribes to everything the
// token may see.
type subscribeFrame struct {
	UserIDs []string `json:"userIds,omitempty"`
}

func (s *WSSubscriber) Subscribe(ctx context.Context, userIDs []string, fn func([]models.CheckinRecord)) (func(), error) {
	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, _, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		return nil, err
	}

	if err := conn.WriteJSON(subscribeFrame{UserIDs: userIDs}); err != nil {
		_ = conn.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		// Unblocks the reader when the subscription is cancelled.
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn(ctx, "realtime subscription closed", "error", err)
				}
				return
			}

			var items []models.CheckinRecord
			if err := json.Unmarshal(data, &items); err != nil {
				s.log.Warn(ctx, "dropping malformed realtime frame", "error", err)
				continue
			}
			if len(items) > 0 {
				fn(items)
			}
		}
	}()

	return cancel, nil
}
