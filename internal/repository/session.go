package repository

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const (
	cartKeyPrefix      = "cart:"
	favoritesKeyPrefix = "favorites:"
	guestSessionPrefix = "guest_"
	defaultSessionTTL  = 5 * 24 * time.Hour
)

func cartKey(sessionID string) string      { return cartKeyPrefix + sessionID }
func favoritesKey(sessionID string) string { return favoritesKeyPrefix + sessionID }

// NewRedisClient builds a client for the session store.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisSessionStore keeps guest carts and favorites under per-session keys
// that expire after a period of inactivity.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisSessionStore {
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl, logger: logger}
}

// NewSessionID issues an opaque guest session token.
func (s *RedisSessionStore) NewSessionID() string {
	return guestSessionPrefix + uuid.NewString()
}

func (s *RedisSessionStore) TTL() time.Duration {
	return s.ttl
}

// CartLines reads the guest cart. An expired or unknown session is an empty cart.
func (s *RedisSessionStore) CartLines(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	raw, err := s.client.HGetAll(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, s.fail("read guest cart", sessionID, err)
	}
	return s.parseCart(sessionID, raw), nil
}

// ClaimCart reads and deletes the guest cart in one MULTI/EXEC. Of several
// concurrent callers exactly one receives the lines; the rest see an empty cart.
func (s *RedisSessionStore) ClaimCart(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	key := cartKey(sessionID)
	var get *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, s.fail("claim guest cart", sessionID, err)
	}
	return s.parseCart(sessionID, get.Val()), nil
}

// RestoreCart puts claimed lines back. Quantities are added so that lines
// written to the session after the claim are kept.
func (s *RedisSessionStore) RestoreCart(ctx context.Context, sessionID string, lines []models.CartLine) error {
	if len(lines) == 0 {
		return nil
	}
	key := cartKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, line := range lines {
			pipe.HIncrBy(ctx, key, line.ProductID, int64(line.Quantity))
		}
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return s.fail("restore guest cart", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) parseCart(sessionID string, raw map[string]string) []models.CartLine {
	lines := make([]models.CartLine, 0, len(raw))
	for productID, v := range raw {
		qty, err := strconv.Atoi(v)
		if err != nil || qty <= 0 {
			s.logger.Warn("Skipping malformed guest cart entry", logging.Fields{
				"session_id": sessionID,
				"product_id": productID,
				"value":      v,
			})
			continue
		}
		lines = append(lines, models.CartLine{ProductID: productID, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

// IncrCartQuantity adds delta to a line atomically and refreshes the TTL.
func (s *RedisSessionStore) IncrCartQuantity(ctx context.Context, sessionID, productID string, delta int) error {
	key := cartKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, productID, int64(delta))
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return s.fail("increment guest cart", sessionID, err)
	}
	return nil
}

// SetCartQuantity overwrites a line and refreshes the TTL.
func (s *RedisSessionStore) SetCartQuantity(ctx context.Context, sessionID, productID string, quantity int) error {
	key := cartKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, productID, quantity)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return s.fail("set guest cart quantity", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) RemoveCartLine(ctx context.Context, sessionID, productID string) error {
	key := cartKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, key, productID)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return s.fail("remove guest cart line", sessionID, err)
	}
	return nil
}

// DeleteCart drops the whole guest cart key.
func (s *RedisSessionStore) DeleteCart(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return s.fail("delete guest cart", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) AddFavorite(ctx context.Context, sessionID, productID string) error {
	key := favoritesKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, productID)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return s.fail("add guest favorite", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) RemoveFavorite(ctx context.Context, sessionID, productID string) error {
	key := favoritesKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, key, productID)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return s.fail("remove guest favorite", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) IsFavorite(ctx context.Context, sessionID, productID string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, favoritesKey(sessionID), productID).Result()
	if err != nil {
		return false, s.fail("check guest favorite", sessionID, err)
	}
	return ok, nil
}

// FavoriteIDs returns the guest favorites in a stable order.
func (s *RedisSessionStore) FavoriteIDs(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, favoritesKey(sessionID)).Result()
	if err != nil {
		return nil, s.fail("read guest favorites", sessionID, err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisSessionStore) CountFavorites(ctx context.Context, sessionID string) (int, error) {
	n, err := s.client.SCard(ctx, favoritesKey(sessionID)).Result()
	if err != nil {
		return 0, s.fail("count guest favorites", sessionID, err)
	}
	return int(n), nil
}

// ClaimFavorites reads and deletes the guest favorites atomically, like ClaimCart.
func (s *RedisSessionStore) ClaimFavorites(ctx context.Context, sessionID string) ([]string, error) {
	key := favoritesKey(sessionID)
	var members *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		members = pipe.SMembers(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, s.fail("claim guest favorites", sessionID, err)
	}
	ids := members.Val()
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisSessionStore) RestoreFavorites(ctx context.Context, sessionID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	key := favoritesKey(sessionID)
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return s.fail("restore guest favorites", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

func (s *RedisSessionStore) fail(op, sessionID string, err error) error {
	s.logger.Error("Session store command failed", logging.Fields{
		"op":         op,
		"session_id": sessionID,
		"error":      err.Error(),
	})
	return errors.Unavailable(op, err)
}
