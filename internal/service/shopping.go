package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/foodgram/internal/metrics"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/shopping"
)

// ShoppingService builds the shopping list from a user's cart.
type ShoppingService struct {
	cart   repository.CartRepository
	logger *slog.Logger
}

func NewShoppingService(cart repository.CartRepository, logger *slog.Logger) *ShoppingService {
	return &ShoppingService{cart: cart, logger: logger}
}

// List aggregates every ingredient of every recipe in userID's cart.
func (s *ShoppingService) List(ctx context.Context, userID string) ([]model.ShoppingItem, error) {
	lines, err := s.cart.CartLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/shopping: loading cart of %s: %w", userID, err)
	}
	return shopping.Aggregate(lines), nil
}

// Export writes userID's shopping list to w in the download format.
func (s *ShoppingService) Export(ctx context.Context, userID string, w io.Writer) error {
	items, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	if err := shopping.Render(w, items); err != nil {
		return fmt.Errorf("service/shopping: %w", err)
	}

	metrics.RecordShoppingExport(len(items))
	s.logger.Info("shopping list exported",
		slog.String("userID", userID),
		slog.Int("items", len(items)),
	)
	return nil
}
