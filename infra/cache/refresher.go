package cache

import (
	"context"
	"time"

	"github.com/chargeq/chargeq/infra/logger"
	"github.com/chargeq/chargeq/internal/eventbus"
)

// Refresher rebuilds the cached board whenever the store reports a record
// change. It coalesces bursts: one rebuild per drain of the subscription
// channel.
type Refresher struct {
	cache  *BoardCache
	source BoardSource
	feed   eventbus.ChangeFeed
	log    logger.Logger
}

// NewRefresher wires a refresher over the cache, source and change feed.
func NewRefresher(cache *BoardCache, source BoardSource, feed eventbus.ChangeFeed, log logger.Logger) *Refresher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Refresher{cache: cache, source: source, feed: feed, log: log}
}

// Run primes the cache and then refreshes on every change until the context
// is canceled or the feed closes. It blocks; run it in its own goroutine.
func (r *Refresher) Run(ctx context.Context) {
	sub := r.feed.Subscribe()
	defer r.feed.Unsubscribe(sub)
	r.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub:
			if !ok {
				return
			}
			// Drain queued changes so a burst triggers one rebuild.
			for {
				select {
				case _, more := <-sub:
					if !more {
						return
					}
					continue
				default:
				}
				break
			}
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	board, err := r.source.CurrentBoard(ctx)
	if err != nil {
		r.log.Errorf("rebuild board: %v", err)
		return
	}
	if err := r.cache.Save(ctx, board); err != nil {
		r.log.Errorf("save board: %v", err)
	}
}
