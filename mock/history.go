package mock

import (
	"context"

	"github.com/fwojciec/mangadl"
)

var _ mangadl.HistoryService = (*HistoryService)(nil)

// HistoryService is a mock implementation of mangadl.HistoryService.
type HistoryService struct {
	CreateRecordFn func(ctx context.Context, record *mangadl.Record) error
	FindRecordsFn  func(ctx context.Context, filter mangadl.RecordFilter) ([]*mangadl.Record, error)
}

func (s *HistoryService) CreateRecord(ctx context.Context, record *mangadl.Record) error {
	return s.CreateRecordFn(ctx, record)
}

func (s *HistoryService) FindRecords(ctx context.Context, filter mangadl.RecordFilter) ([]*mangadl.Record, error) {
	return s.FindRecordsFn(ctx, filter)
}
