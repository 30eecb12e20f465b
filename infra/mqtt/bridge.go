package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	coremqtt "github.com/chargeq/chargeq/core/mqtt"
	"github.com/chargeq/chargeq/core/store"
	"github.com/chargeq/chargeq/infra/logger"
	"github.com/chargeq/chargeq/internal/eventbus"
)

// Bridge mirrors store record changes to broker topics so external
// dashboards can follow occupancy and queue movement without polling the
// API. Topics follow <prefix>/<kind>/<action>.
type Bridge struct {
	pub    coremqtt.Publisher
	feed   eventbus.ChangeFeed
	prefix string
	log    logger.Logger
}

// NewBridge creates a bridge publishing changes from feed through pub.
func NewBridge(pub coremqtt.Publisher, feed eventbus.ChangeFeed, prefix string, log logger.Logger) (*Bridge, error) {
	if pub == nil || feed == nil {
		return nil, fmt.Errorf("mqtt bridge requires a publisher and a feed")
	}
	if prefix == "" {
		prefix = "chargeq"
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Bridge{pub: pub, feed: feed, prefix: prefix, log: log}, nil
}

// Run subscribes to the change feed and publishes until the context is
// canceled or the feed closes. It blocks; run it in its own goroutine.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.feed.Subscribe()
	defer b.feed.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-sub:
			if !ok {
				return
			}
			b.publish(c)
		}
	}
}

func (b *Bridge) publish(c store.RecordChange) {
	payload, err := json.Marshal(c)
	if err != nil {
		b.log.Errorf("encode change: %v", err)
		return
	}
	topic := fmt.Sprintf("%s/%s/%s", b.prefix, c.Kind, c.Action)
	if err := b.pub.Publish(topic, payload); err != nil {
		b.log.Errorf("publish %s: %v", topic, err)
	}
}
