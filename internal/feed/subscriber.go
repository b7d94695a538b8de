package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/Alias1177/Railwatch/models"
)

// ErrMissingID marks an insert payload without a transaction id
var ErrMissingID = errors.New("payload missing transaction id")

// Reconnect window for the underlying listener. Reconnect policy lives in
// pq.Listener, not in the feed core.
const (
	minReconnectInterval = 2 * time.Second
	maxReconnectInterval = 30 * time.Second
)

// ParseTransaction is the typed boundary between the wire payload and the
// classifier. Untyped data never flows past this point.
func ParseTransaction(payload []byte) (models.Transaction, error) {
	var tx models.Transaction
	if err := json.Unmarshal(payload, &tx); err != nil {
		return models.Transaction{}, fmt.Errorf("decoding insert payload: %w", err)
	}
	if tx.ID == "" {
		return models.Transaction{}, ErrMissingID
	}
	return tx, nil
}

// Subscription is the handle for one live LISTEN session.
// Close is safe to call more than once.
type Subscription struct {
	listener *pq.Listener
	done     chan struct{}
	closed   sync.Once
}

// Close tears down the subscription and stops the delivery goroutine
func (s *Subscription) Close() {
	s.closed.Do(func() {
		close(s.done)
		s.listener.Close()
	})
}

// Subscribe opens a LISTEN session on channel and invokes onInsert once per
// qualifying insert event, in transport order. Events that fail to parse are
// dropped with a warning; events without fraud_flag are filtered out.
func Subscribe(dsn, channel string, onInsert func(models.Transaction), logger zerolog.Logger) (*Subscription, error) {
	listener := pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval,
		func(event pq.ListenerEventType, err error) {
			switch event {
			case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
				logger.Warn().Err(err).Msg("realtime channel disconnected")
			case pq.ListenerEventReconnected:
				logger.Info().Msg("realtime channel reconnected")
			}
		})

	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listening on %s: %w", channel, err)
	}

	sub := &Subscription{
		listener: listener,
		done:     make(chan struct{}),
	}

	go sub.deliver(onInsert, logger)

	logger.Info().Str("channel", channel).Msg("subscribed to insert events")
	return sub, nil
}

func (s *Subscription) deliver(onInsert func(models.Transaction), logger zerolog.Logger) {
	for {
		select {
		case <-s.done:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			// nil notifications signal a reconnect; missed events are
			// recovered by the next bulk reload, not replayed here
			if n == nil {
				continue
			}

			handleNotification(n.Extra, onInsert, logger)
		}
	}
}

// handleNotification parses one insert payload and forwards it when it is a
// flagged transaction. Malformed payloads are dropped with a warning and
// unflagged rows are filtered out before classification.
func handleNotification(payload string, onInsert func(models.Transaction), logger zerolog.Logger) {
	tx, err := ParseTransaction([]byte(payload))
	if err != nil {
		logger.Warn().Err(err).Str("payload", payload).Msg("dropping malformed insert event")
		return
	}
	if !tx.FraudFlag {
		return
	}

	onInsert(tx)
}
