package crud

import (
	"context"
	"strconv"

	"github.com/dkang/foodlane-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultPage  int64 = 1
	defaultLimit int64 = 10
)

// PageInfo describes the page returned by a paginated read.
type PageInfo struct {
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Pages int64 `json:"pages"`
	Limit int64 `json:"limit"`
}

// PageRequest carries the raw page and limit query parameters.
// Pagination is active when at least one of them is present.
type PageRequest struct {
	Page  string
	Limit string
}

func (p PageRequest) active() bool {
	return p.Page != "" || p.Limit != ""
}

// parsePositive coerces a raw parameter to a positive integer, falling
// back to def on invalid or non-positive input.
func parsePositive(raw string, def int64) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

type countResult struct {
	total int64
	err   error
}

// Paginate fetches documents matching filter. Without page parameters
// it returns every match sorted and a nil PageInfo. With them it
// returns the bounded page; the total count runs concurrently with the
// page fetch against the same filter, so the two may race under
// concurrent writes.
func Paginate(ctx context.Context, col Collection, filter interface{}, sort bson.D, req PageRequest) ([]bson.M, *PageInfo, error) {
	if filter == nil {
		filter = bson.M{}
	}
	if sort == nil {
		sort = defaultSort
	}

	if !req.active() {
		cur, err := col.Find(ctx, filter, options.Find().SetSort(sort))
		if err != nil {
			return nil, nil, err
		}
		defer cur.Close(ctx)

		var items []bson.M
		if err := cur.All(ctx, &items); err != nil {
			return nil, nil, err
		}
		return items, nil, nil
	}

	page := parsePositive(req.Page, defaultPage)
	limit := parsePositive(req.Limit, defaultLimit)
	skip := (page - 1) * limit

	countCh := make(chan countResult, 1)
	go func() {
		total, err := col.CountDocuments(ctx, filter)
		countCh <- countResult{total: total, err: err}
	}()

	findOpts := options.Find().
		SetSort(sort).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := col.Find(ctx, filter, findOpts)
	if err != nil {
		<-countCh
		return nil, nil, err
	}
	defer cur.Close(ctx)

	var items []bson.M
	if err := cur.All(ctx, &items); err != nil {
		<-countCh
		return nil, nil, err
	}

	count := <-countCh
	if count.err != nil {
		return nil, nil, count.err
	}

	pages := count.total / limit
	if count.total%limit != 0 {
		pages++
	}

	logger.Debug("Paginated query executed", map[string]interface{}{
		"page":  page,
		"limit": limit,
		"total": count.total,
		"count": len(items),
	})

	return items, &PageInfo{
		Total: count.total,
		Page:  page,
		Pages: pages,
		Limit: limit,
	}, nil
}
