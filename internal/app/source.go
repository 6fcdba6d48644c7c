package service

import (
	"context"

	"github.com/okian/huddle/internal/domain/checkin"
)

// Source fetches the full check-in record list.
//
//go:generate mockgen -source=source.go -destination=mock_source_test.go -package=service_test
type Source interface {
	List(ctx context.Context) ([]checkin.Record, error)
}
