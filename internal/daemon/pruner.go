package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatrise/internal/auth"
)

const pruneInterval = time.Hour

// pruner deletes expired sessions in the background.
type pruner struct {
	auth   *auth.Service
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func newPruner(a *auth.Service, logger *zap.Logger) *pruner {
	return &pruner{auth: a, logger: logger}
}

func (p *pruner) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx)
}

func (p *pruner) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}

func (p *pruner) loop(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	p.prune(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *pruner) prune(ctx context.Context) {
	n, err := p.auth.PruneSessions(ctx)
	if err != nil {
		p.logger.Warn("prune sessions failed", zap.Error(err))
		return
	}
	if n > 0 {
		p.logger.Info("expired sessions pruned", zap.Int64("count", n))
	}
}
