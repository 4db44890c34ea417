package scheduler

import (
	"context"
	"log"
	"time"
)

// Every runs task immediately and then once per interval until ctx is
// cancelled. Runs never overlap: the ticker fires again only after the
// previous invocation returns.
func Every(ctx context.Context, interval time.Duration, name string, task func(context.Context) error) {
	if err := task(ctx); err != nil {
		log.Printf("[sched:%s] error: %v", name, err)
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := task(ctx); err != nil {
				log.Printf("[sched:%s] error: %v", name, err)
			}
		}
	}
}
