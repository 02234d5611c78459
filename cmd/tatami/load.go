package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/abelbrown/tatami/internal/api"
	"github.com/abelbrown/tatami/internal/feed"
	"github.com/abelbrown/tatami/internal/logging"
	"github.com/abelbrown/tatami/internal/status"
)

// firstPageBackoff bounds the startup retry; once the UI is up, polling
// and paging retry on their own.
var firstPageBackoff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// loadPage reads the newest page of fc.
func loadPage(ctx context.Context, svc feed.Services, fc feed.Context, count int, timeout time.Duration) ([]status.Status, error) {
	fetcher, err := svc.Timeline(fc.Kind)
	if err != nil {
		return nil, err
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fetcher.Fetch(reqCtx, feed.Query{Filter: fc.Filter(), Count: count})
}

// firstPage is loadPage with exponential backoff on transient failures.
func firstPage(ctx context.Context, svc feed.Services, fc feed.Context, count int, timeout time.Duration) ([]status.Status, error) {
	var items []status.Status
	attempt := 0
	op := func() error {
		attempt++
		got, err := loadPage(ctx, svc, fc, count, timeout)
		if err != nil {
			if !api.IsTemporary(err) {
				return backoff.Permanent(err)
			}
			logging.Warn("first page failed", "feed", fc, "attempt", attempt, "err", err)
			return err
		}
		items = got
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(firstPageBackoff(), ctx)); err != nil {
		return nil, fmt.Errorf("load %s: %w", fc, err)
	}
	return items, nil
}
