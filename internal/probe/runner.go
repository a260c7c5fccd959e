package probe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/pawmatch/pkg/logger"
)

// Report summarises a verification run.
type Report struct {
	Users      int
	Verified   int
	Failed     int
	Violations map[string][]error
	Duration   time.Duration
}

// OK reports whether every list was fetched and passed verification.
func (r Report) OK() bool { return r.Failed == 0 && len(r.Violations) == 0 }

// Verify fetches each user's ranked list with up to workers concurrent
// requests and checks it. Fetch errors are counted, not returned; only ctx
// cancellation aborts the run.
func Verify(ctx context.Context, c *Client, users []string, workers int, log logger.Logger) (Report, error) {
	if workers < 1 {
		workers = 1
	}
	start := time.Now()
	rep := Report{Users: len(users), Violations: make(map[string][]error)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, user := range users {
		g.Go(func() error {
			list, err := c.Matches(gctx, user, 0)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				rep.Failed++
				log.Warn(gctx, "fetch failed", logger.String("user_id", user), logger.Error(err))
				return nil
			}
			rep.Verified++
			if errs := VerifyList(list); len(errs) > 0 {
				rep.Violations[user] = errs
			}
			log.Debug(gctx, "list verified",
				logger.String("user_id", user),
				logger.Int("pets", len(list.Pets)),
				logger.String("mode", string(list.Mode)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, fmt.Errorf("verify: %w", err)
	}
	rep.Duration = time.Since(start)
	return rep, nil
}
