package pricefeed

import (
	"context"
	"errors"
	"sync"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrNoPrice is returned when every source failed and no cached price is
// fresh enough to serve.
var ErrNoPrice = errors.New("no price available")

var (
	feedQuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "surge",
			Subsystem: "pricefeed",
			Name:      "quotes_total",
			Help:      "Quotes served, by winning source",
		},
		[]string{"source"},
	)
	feedRejectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "surge",
			Subsystem: "pricefeed",
			Name:      "rejections_total",
			Help:      "Source responses rejected, by reason",
		},
		[]string{"source", "reason"},
	)
)

// Quote is one served price with its provenance.
type Quote struct {
	Pair      Pair              `json:"pair"`
	Price     sdkmath.LegacyDec `json:"price"`
	Source    string            `json:"source"`
	Timestamp time.Time         `json:"timestamp"`
}

type cachedQuote struct {
	price     sdkmath.LegacyDec
	fetchedAt time.Time
}

// Feed answers price queries by walking a fallback chain of sources and
// gating each answer against the last known good price. The chain order is
// the trust order: the on-chain TWAP first, the external aggregator after,
// the cache as a last resort.
type Feed struct {
	sources      []Source
	maxDeviation sdkmath.LegacyDec
	cacheTTL     time.Duration
	now          func() time.Time
	logger       log.Logger

	mu       sync.RWMutex
	lastGood map[Pair]cachedQuote
}

// NewFeed builds a feed over the given sources, in fallback order.
func NewFeed(sources []Source, maxDeviation sdkmath.LegacyDec, cacheTTL time.Duration, logger log.Logger) *Feed {
	return &Feed{
		sources:      sources,
		maxDeviation: maxDeviation,
		cacheTTL:     cacheTTL,
		now:          time.Now,
		logger:       logger.With("component", "pricefeed"),
		lastGood:     make(map[Pair]cachedQuote),
	}
}

// Price returns the best available quote for a pair.
func (f *Feed) Price(ctx context.Context, pair Pair) (Quote, error) {
	f.mu.RLock()
	cached, hasCached := f.lastGood[pair]
	f.mu.RUnlock()

	for _, src := range f.sources {
		price, err := src.Fetch(ctx, pair)
		if err != nil {
			f.logger.Warn("price source failed", "source", src.Name(), "pair", pair.String(), "err", err)
			feedRejectsTotal.WithLabelValues(src.Name(), "fetch_error").Inc()
			continue
		}

		if hasCached && f.deviationTooLarge(cached.price, price) {
			f.logger.Warn("price source rejected for deviation",
				"source", src.Name(),
				"pair", pair.String(),
				"price", price.String(),
				"last_good", cached.price.String(),
			)
			feedRejectsTotal.WithLabelValues(src.Name(), "deviation").Inc()
			continue
		}

		now := f.now()
		f.mu.Lock()
		f.lastGood[pair] = cachedQuote{price: price, fetchedAt: now}
		f.mu.Unlock()

		feedQuotesTotal.WithLabelValues(src.Name()).Inc()
		return Quote{Pair: pair, Price: price, Source: src.Name(), Timestamp: now}, nil
	}

	// Every live source failed; a fresh-enough cached price still serves.
	if hasCached && f.now().Sub(cached.fetchedAt) <= f.cacheTTL {
		feedQuotesTotal.WithLabelValues("cache").Inc()
		return Quote{Pair: pair, Price: cached.price, Source: "cache", Timestamp: cached.fetchedAt}, nil
	}

	return Quote{}, ErrNoPrice
}

func (f *Feed) deviationTooLarge(lastGood, fresh sdkmath.LegacyDec) bool {
	if lastGood.IsZero() {
		return false
	}
	change := fresh.Sub(lastGood).Abs().Quo(lastGood)
	return change.GT(f.maxDeviation)
}
