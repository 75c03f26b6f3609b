// Package cart keeps a per-session cart snapshot and applies quantity changes
// optimistically against the marketplace API.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/upstream"

	"github.com/redis/go-redis/v9"
)

var ErrSnapshotMissing = errors.New("CART_SNAPSHOT_MISSING")

const maxTxRetries = 5

// API is the part of the upstream client the cart needs.
type API interface {
	Get(ctx context.Context, path string, ident upstream.Identity, dst interface{}) (*upstream.Response, error)
	SendJSON(ctx context.Context, method, path string, ident upstream.Identity, payload, dst interface{}) (*upstream.Response, error)
}

type Service struct {
	api    API
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewService(api API, client *redis.Client, ttl time.Duration, log logger.Logger) *Service {
	return &Service{
		api:    api,
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "cart"}),
	}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// Snapshot returns the cart as last stored for the session.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (*models.Cart, error) {
	raw, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotMissing
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var c models.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

// Refresh replaces the snapshot with the cart upstream reports.
func (s *Service) Refresh(ctx context.Context, ident upstream.Identity, sessionID string) (*models.Cart, error) {
	var c models.Cart
	if _, err := s.api.Get(ctx, "/api/cart", ident, &c); err != nil {
		return nil, err
	}
	if err := s.store(ctx, s.client, sessionID, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) store(ctx context.Context, cmd redis.Cmdable, sessionID string, c *models.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return cmd.Set(ctx, cartKey(sessionID), raw, s.ttl).Err()
}

// mutate runs fn against the snapshot inside a WATCH transaction so two
// requests of one session cannot interleave their read-modify-write.
func (s *Service) mutate(ctx context.Context, sessionID string, fn func(c *models.Cart) error) (*models.Cart, error) {
	key := cartKey(sessionID)
	var out *models.Cart

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSnapshotMissing
		}
		if err != nil {
			return err
		}
		var c models.Cart
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("decode cart: %w", err)
		}
		if err := fn(&c); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.store(ctx, pipe, sessionID, &c)
		})
		if err == nil {
			out = &c
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}
	return nil, fmt.Errorf("cart update for %s kept conflicting", sessionID)
}

// UpdateQuantity sets an item's quantity. Quantities below one or above the
// available stock are rejected before any request is made. The new quantity is
// applied to the snapshot first and rolled back if upstream refuses it, unless
// a later action has changed the item in the meantime.
func (s *Service) UpdateQuantity(ctx context.Context, ident upstream.Identity, sessionID, itemID string, qty int) (*models.Cart, error) {
	snap, err := s.Snapshot(ctx, sessionID)
	if errors.Is(err, ErrSnapshotMissing) {
		snap, err = s.Refresh(ctx, ident, sessionID)
	}
	if err != nil {
		return nil, err
	}
	if err := checkQuantity(snap, itemID, qty); err != nil {
		return nil, err
	}

	var previous int
	var applied int64
	_, err = s.mutate(ctx, sessionID, func(c *models.Cart) error {
		if err := checkQuantity(c, itemID, qty); err != nil {
			return err
		}
		item := &c.Items[c.Find(itemID)]
		previous = item.Quantity
		item.Quantity = qty
		item.Version++
		applied = item.Version
		return nil
	})
	if err != nil {
		return nil, err
	}

	_, apiErr := s.api.SendJSON(ctx, http.MethodPut, "/api/cart/items/"+url.PathEscape(itemID), ident,
		map[string]int{"quantity": qty}, nil)
	if apiErr == nil {
		return s.Snapshot(ctx, sessionID)
	}

	s.logger.Warn("cart update rejected, rolling back", map[string]interface{}{
		"item":  itemID,
		"error": apiErr.Error(),
	})
	c, err := s.mutate(context.WithoutCancel(ctx), sessionID, func(c *models.Cart) error {
		i := c.Find(itemID)
		// gone or changed by a newer action: that action wins
		if i < 0 || c.Items[i].Version != applied {
			return nil
		}
		c.Items[i].Quantity = previous
		c.Items[i].Version++
		return nil
	})
	if err != nil {
		s.logger.Error("cart rollback failed", map[string]interface{}{"item": itemID, "error": err.Error()})
	}
	return c, apiErr
}

// RemoveItem drops an item optimistically and restores it if upstream refuses.
func (s *Service) RemoveItem(ctx context.Context, ident upstream.Identity, sessionID, itemID string) (*models.Cart, error) {
	var removed models.CartItem
	var position int
	_, err := s.mutate(ctx, sessionID, func(c *models.Cart) error {
		i := c.Find(itemID)
		if i < 0 {
			return gwerrors.NewNotFoundError("Cart item", itemID)
		}
		removed = c.Items[i]
		position = i
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	_, apiErr := s.api.SendJSON(ctx, http.MethodDelete, "/api/cart/items/"+url.PathEscape(itemID), ident, struct{}{}, nil)
	if apiErr == nil {
		return s.Snapshot(ctx, sessionID)
	}

	c, err := s.mutate(context.WithoutCancel(ctx), sessionID, func(c *models.Cart) error {
		if c.Find(itemID) >= 0 {
			return nil
		}
		if position > len(c.Items) {
			position = len(c.Items)
		}
		c.Items = append(c.Items[:position], append([]models.CartItem{removed}, c.Items[position:]...)...)
		return nil
	})
	if err != nil {
		s.logger.Error("cart restore failed", map[string]interface{}{"item": itemID, "error": err.Error()})
	}
	return c, apiErr
}

func checkQuantity(c *models.Cart, itemID string, qty int) error {
	i := c.Find(itemID)
	if i < 0 {
		return gwerrors.NewNotFoundError("Cart item", itemID)
	}
	if qty < 1 {
		return gwerrors.NewValidationError(1).WithMetadata("errors", models.ErrorSet{
			"quantity": "Quantity must be at least 1",
		})
	}
	if available := c.Items[i].AvailableStock; qty > available {
		return gwerrors.NewStockLimitError(itemID, available)
	}
	return nil
}
