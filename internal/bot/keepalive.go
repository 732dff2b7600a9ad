package bot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/connectical/whistler/internal/transport"
)

// keepalive is the periodic liveness probe. One handle exists per session; it
// is created on the Ready transition and stopped exactly once on shutdown (or
// replaced when the transport re-establishes the session). It never touches
// session state, only the transport's Ping.
type keepalive struct {
	every time.Duration
	done  chan struct{}
	once  sync.Once
}

func newKeepalive(every time.Duration) *keepalive {
	return &keepalive{every: every, done: make(chan struct{})}
}

// run ticks until stopped. An in-flight probe is allowed to finish; stopping
// only prevents the next tick. Probe failures are logged and otherwise
// ignored: the server deciding we are gone is what the probe exists to avoid,
// not something the bot reacts to.
func (k *keepalive) run(tr transport.Transport, log zerolog.Logger) {
	ticker := time.NewTicker(k.every)
	defer ticker.Stop()
	for {
		select {
		case <-k.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), k.every)
			if err := tr.Ping(ctx); err != nil {
				log.Warn().Err(err).Msg("keep-alive probe failed")
			}
			cancel()
		}
	}
}

// stop signals the job to not schedule its next tick. Safe to call more than
// once.
func (k *keepalive) stop() {
	k.once.Do(func() { close(k.done) })
}
