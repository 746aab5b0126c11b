package content

import (
	"context"
	"fmt"
)

// SourceSet routes a pool key to the fetch strategy that serves it: RSS
// feeds for today, the channel crawl for past dates and keyword searches.
type SourceSet struct {
	feeds   *FeedSet
	channel *Crawler
}

var _ Fetcher = (*SourceSet)(nil)

// NewSourceSet combines the two backends into one Fetcher.
func NewSourceSet(feeds *FeedSet, channel *Crawler) *SourceSet {
	return &SourceSet{feeds: feeds, channel: channel}
}

// FetchPool implements Fetcher.
func (s *SourceSet) FetchPool(ctx context.Context, key Key) ([]Article, error) {
	switch key.Kind {
	case KeyToday:
		return s.feeds.FetchToday(ctx)
	case KeyDate:
		return s.channel.ByDate(ctx, key.Day)
	case KeyKeyword:
		return s.channel.ByKeyword(ctx, key.Word)
	default:
		return nil, fmt.Errorf("unknown pool key kind %d", key.Kind)
	}
}
