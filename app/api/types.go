package api

import (
	"context"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
)

type AggregatorInterface interface {
	Run(ctx context.Context) (*feed.Result, error)
	Rules() []feed.CategoryRule
}

var _ AggregatorInterface = (*feed.Aggregator)(nil)

type RunRepositoryInterface interface {
	Record(ctx context.Context, run database.Run) error
	Summary(ctx context.Context) (*database.Summary, error)
}

var _ RunRepositoryInterface = (*database.RunRepository)(nil)

type Handler struct {
	aggregator AggregatorInterface
	generator  *feed.Generator
	runRepo    RunRepositoryInterface // nil when statistics are disabled
	version    string
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
