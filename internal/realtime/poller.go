package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tasklink-app/tasklink-web/internal/upstream"
)

// Poller feeds the hub from the upstream notifications endpoint. One watch
// loop runs per connected user, reference-counted across their tabs. The
// first fetch only primes the seen set; only deltas are pushed.
type Poller struct {
	API      *upstream.NotificationsAPI
	Hub      *Hub
	Interval time.Duration
	Log      *zap.Logger

	mu       sync.Mutex
	watchers map[string]*watcher
}

type watcher struct {
	refs int
	stop chan struct{}
}

func NewPoller(api *upstream.NotificationsAPI, hub *Hub, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Poller{
		API:      api,
		Hub:      hub,
		Interval: interval,
		Log:      log,
		watchers: make(map[string]*watcher),
	}
}

func (p *Poller) Watch(userID, token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.watchers[userID]; ok {
		w.refs++
		return
	}
	w := &watcher{refs: 1, stop: make(chan struct{})}
	p.watchers[userID] = w
	go p.loop(userID, token, w.stop)
}

func (p *Poller) Unwatch(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.watchers[userID]
	if !ok {
		return
	}
	w.refs--
	if w.refs <= 0 {
		close(w.stop)
		delete(p.watchers, userID)
	}
}

func (p *Poller) loop(userID, token string, stop chan struct{}) {
	seen := make(map[string]bool)

	prime := func(markOnly bool) {
		ctx, cancel := context.WithTimeout(context.Background(), p.Interval)
		defer cancel()
		notifications, err := p.API.Recent(ctx, token)
		if err != nil {
			p.Log.Debug("notification poll failed", zap.String("user", userID), zap.Error(err))
			return
		}
		for _, n := range notifications {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			if !markOnly {
				p.Hub.SendToUser(userID, n)
			}
		}
	}

	prime(true)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			prime(false)
		}
	}
}
