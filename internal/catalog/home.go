package catalog

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"cinetrack/internal/media"
)

// homeRowSize is how many titles each home page row shows.
const homeRowSize = 10

// Home fetches the trending, popular movie and popular show rows concurrently.
// Any failure fails the whole feed.
func (c *Client) Home(ctx context.Context) (*HomeFeed, error) {
	feed := &HomeFeed{}

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		page, err := c.Trending(ctx, "all", "week")
		if err != nil {
			return err
		}
		feed.Trending = firstN(page.Results, homeRowSize)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		page, err := c.Popular(ctx, media.KindMovie, 1)
		if err != nil {
			return err
		}
		feed.PopularMovies = firstN(page.Results, homeRowSize)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		page, err := c.Popular(ctx, media.KindTV, 1)
		if err != nil {
			return err
		}
		feed.PopularShows = firstN(page.Results, homeRowSize)
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("load home feed: %w", err)
	}
	return feed, nil
}

func firstN(items []Item, n int) []Item {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
