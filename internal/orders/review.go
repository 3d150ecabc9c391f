package orders

import (
	"context"
	"fmt"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/checkout"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/logger"
)

type reviewStore interface {
	MarkForReview(ctx context.Context, ids []domain.OrderID) (int64, error)
}

// ReviewMarker flags the orders that a partial checkout did create as
// NEEDS_REVIEW, in the same process.
type ReviewMarker struct {
	store reviewStore
}

func NewReviewMarker(store reviewStore) *ReviewMarker {
	return &ReviewMarker{store: store}
}

func (r *ReviewMarker) OnPartialCheckout(ctx context.Context, buyerID string, submitErr *checkout.SubmitError) error {
	n, err := r.store.MarkForReview(ctx, submitErr.CreatedOrderIDs)
	if err != nil {
		return fmt.Errorf("mark checkout %s for review: %w", submitErr.GroupToken, err)
	}
	logger.FromContext(ctx).Warn().
		Str("group_token", submitErr.GroupToken).
		Str("buyer_id", buyerID).
		Int64("orders", n).
		Msg("orders flagged for review")
	return nil
}
