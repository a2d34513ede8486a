package source

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kapu/kdp-keyword-go/internal/constants"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeName = "youtube"

// YouTube measures competition_count as the number of videos matching the
// keyword. search.list costs 100 units of a 10 000 unit daily quota, so the
// adapter refuses calls once the remaining quota reaches the safety margin.
type YouTube struct {
	service    *youtube.Service
	logger     *zap.Logger
	quotaUsed  int
	quotaMu    sync.Mutex
	quotaReset time.Time
	now        func() time.Time
}

// NewYouTube creates the adapter. auth is an API key or OAuth token source
// option (see YouTubeAuth); extra options (endpoint, HTTP client) follow it.
func NewYouTube(ctx context.Context, auth option.ClientOption, logger *zap.Logger, opts ...option.ClientOption) (*YouTube, error) {
	if auth == nil {
		return nil, fmt.Errorf("YouTube API key or OAuth credentials are required")
	}

	clientOpts := append([]option.ClientOption{auth}, opts...)
	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	yt := &YouTube{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
	yt.quotaReset = nextQuotaReset(yt.now())

	logger.Info("YouTube measurer initialized",
		zap.Time("quota_reset", yt.quotaReset))

	return yt, nil
}

func (y *YouTube) Name() string { return youtubeName }

func (y *YouTube) Kind() Kind { return KindVideo }

// nextQuotaReset is the next midnight Pacific Time.
func nextQuotaReset(now time.Time) time.Time {
	pt, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		pt = time.FixedZone("PT", -8*60*60)
	}
	local := now.In(pt)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, pt)
}

func (y *YouTube) checkQuota(cost int) error {
	y.quotaMu.Lock()
	defer y.quotaMu.Unlock()

	if y.now().After(y.quotaReset) {
		y.quotaUsed = 0
		y.quotaReset = nextQuotaReset(y.now())
		y.logger.Info("YouTube API quota auto-reset", zap.Time("next_reset", y.quotaReset))
	}

	limit := constants.APIConfig.YouTubeDailyQuota
	if y.quotaUsed+cost > limit-constants.APIConfig.YouTubeQuotaMargin {
		return &QuotaExceededError{
			Used:      y.quotaUsed,
			Limit:     limit,
			Requested: cost,
			ResetTime: y.quotaReset,
		}
	}
	return nil
}

func (y *YouTube) consumeQuota(cost int) {
	y.quotaMu.Lock()
	defer y.quotaMu.Unlock()

	y.quotaUsed += cost
	remaining := constants.APIConfig.YouTubeDailyQuota - y.quotaUsed
	if remaining < constants.APIConfig.YouTubeQuotaMargin {
		y.logger.Warn("YouTube API quota running low",
			zap.Int("remaining", remaining),
			zap.Time("reset_time", y.quotaReset))
	}
}

func (y *YouTube) Measure(ctx context.Context, keyword string) (domain.SignalSet, error) {
	cost := constants.APIConfig.YouTubeSearchCost
	if err := y.checkQuota(cost); err != nil {
		return nil, errors.NewSourceUnavailable(y.Name(), "measure", keyword, err)
	}

	response, err := y.service.Search.List([]string{"id"}).
		Q(keyword).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
			y.quotaMu.Lock()
			err = &QuotaExceededError{
				Used:      y.quotaUsed,
				Limit:     constants.APIConfig.YouTubeDailyQuota,
				Requested: cost,
				ResetTime: y.quotaReset,
			}
			y.quotaMu.Unlock()
		}
		return nil, errors.NewSourceUnavailable(y.Name(), "measure", keyword, err)
	}
	y.consumeQuota(cost)

	signals := domain.NewSignalSet()
	if response.PageInfo != nil {
		signals.Set(domain.SignalCompetitionCount, float64(response.PageInfo.TotalResults))
	}
	return signals, nil
}

// QuotaUsed returns the units spent since the last reset.
func (y *YouTube) QuotaUsed() int {
	y.quotaMu.Lock()
	defer y.quotaMu.Unlock()
	return y.quotaUsed
}

type QuotaExceededError struct {
	Used      int
	Limit     int
	Requested int
	ResetTime time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("YouTube API quota exceeded: used %d/%d (requested %d more), resets at %s",
		e.Used, e.Limit, e.Requested, e.ResetTime.Format(time.RFC3339))
}
