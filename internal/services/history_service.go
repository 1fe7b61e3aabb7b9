package services

import (
	"context"
	"log"
	"slices"
	"strings"

	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/store"
)

const maxHistoryPageSize = 100

// HistoryListRequest is the query string of a history listing.
type HistoryListRequest struct {
	Type     string
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// StatusUpdateRequest changes the status of one history entry.
// @Description History status update
type StatusUpdateRequest struct {
	Status  string `json:"status" validate:"required,max=32" example:"Redeemed"`
	Version int    `json:"version" validate:"gte=1" example:"1"`
}

type HistoryService struct {
	history         HistoryRepository
	defaultPageSize int
}

func NewHistoryService(history HistoryRepository, defaultPageSize int) *HistoryService {
	if defaultPageSize <= 0 || defaultPageSize > maxHistoryPageSize {
		defaultPageSize = 20
	}
	return &HistoryService{history: history, defaultPageSize: defaultPageSize}
}

func (s *HistoryService) List(ctx context.Context, userID int64, req HistoryListRequest) (*store.HistoryPage, error) {
	if req.Type != "" && !slices.Contains(models.HistoryTypes, req.Type) {
		return nil, errs.Markf(errs.ErrValidation, "unknown history type %q", req.Type)
	}
	if req.Sort == "" {
		req.Sort = store.SortDateDesc
	}
	if !store.ValidSort(req.Sort) {
		return nil, errs.Markf(errs.ErrValidation, "unknown sort %q", req.Sort)
	}
	if req.Page < 1 {
		req.Page = 1
	}
	switch {
	case req.PageSize <= 0:
		req.PageSize = s.defaultPageSize
	case req.PageSize > maxHistoryPageSize:
		req.PageSize = maxHistoryPageSize
	}

	return s.history.List(ctx, userID, store.HistoryQuery{
		Type:     req.Type,
		Search:   strings.TrimSpace(req.Search),
		Sort:     req.Sort,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

func (s *HistoryService) Get(ctx context.Context, userID, id int64) (*models.HistoryEntry, error) {
	return s.history.Get(ctx, userID, id)
}

// UpdateStatus applies a status change if the entry is still at the
// version the client last saw, and returns the updated entry.
func (s *HistoryService) UpdateStatus(ctx context.Context, userID, id int64, req StatusUpdateRequest) (*models.HistoryEntry, error) {
	if err := s.history.UpdateStatus(ctx, userID, id, req.Status, req.Version); err != nil {
		log.Printf("[HISTORY] Status update of entry %d failed: %v", id, err)
		return nil, err
	}
	return s.history.Get(ctx, userID, id)
}
