package repository

import (
	"context"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// CartLineStore is the cart of one owner, backed by either the session
// store (guests) or the ledger (users).
type CartLineStore interface {
	Lines(ctx context.Context) ([]models.CartLine, error)
	// Add increments the line by quantity, creating it when absent.
	Add(ctx context.Context, productID string, quantity int) error
	// Set overwrites the line quantity, creating it when absent.
	Set(ctx context.Context, productID string, quantity int) error
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

// FavoriteSet is the favorites of one owner.
type FavoriteSet interface {
	Add(ctx context.Context, productID string) error
	Remove(ctx context.Context, productID string) error
	Contains(ctx context.Context, productID string) (bool, error)
	Members(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// Stores picks the backing store for an identity once per request.
type Stores struct {
	sessions *RedisSessionStore
	ledger   *Ledger
	now      func() time.Time
}

func NewStores(sessions *RedisSessionStore, ledger *Ledger) *Stores {
	return &Stores{
		sessions: sessions,
		ledger:   ledger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Stores) Cart(id models.Identity) CartLineStore {
	switch v := id.(type) {
	case models.UserIdentity:
		return &userCart{q: s.ledger.Queries(), userID: v.UserID, now: s.now}
	case models.GuestIdentity:
		return &guestCart{sessions: s.sessions, sessionID: v.SessionID}
	}
	panic("repository: unknown identity type")
}

func (s *Stores) Favorites(id models.Identity) FavoriteSet {
	switch v := id.(type) {
	case models.UserIdentity:
		return &userFavorites{q: s.ledger.Queries(), userID: v.UserID, now: s.now}
	case models.GuestIdentity:
		return &guestFavorites{sessions: s.sessions, sessionID: v.SessionID}
	}
	panic("repository: unknown identity type")
}

type guestCart struct {
	sessions  *RedisSessionStore
	sessionID string
}

func (c *guestCart) Lines(ctx context.Context) ([]models.CartLine, error) {
	return c.sessions.CartLines(ctx, c.sessionID)
}

func (c *guestCart) Add(ctx context.Context, productID string, quantity int) error {
	return c.sessions.IncrCartQuantity(ctx, c.sessionID, productID, quantity)
}

func (c *guestCart) Set(ctx context.Context, productID string, quantity int) error {
	return c.sessions.SetCartQuantity(ctx, c.sessionID, productID, quantity)
}

func (c *guestCart) Remove(ctx context.Context, productID string) error {
	return c.sessions.RemoveCartLine(ctx, c.sessionID, productID)
}

func (c *guestCart) Clear(ctx context.Context) error {
	return c.sessions.DeleteCart(ctx, c.sessionID)
}

type userCart struct {
	q      *Queries
	userID string
	now    func() time.Time
}

func (c *userCart) Lines(ctx context.Context) ([]models.CartLine, error) {
	return c.q.ListCartLines(ctx, c.userID)
}

func (c *userCart) Add(ctx context.Context, productID string, quantity int) error {
	return c.q.AddCartQuantity(ctx, c.userID, productID, quantity, c.now())
}

func (c *userCart) Set(ctx context.Context, productID string, quantity int) error {
	return c.q.SetCartQuantity(ctx, c.userID, productID, quantity, c.now())
}

func (c *userCart) Remove(ctx context.Context, productID string) error {
	return c.q.DeleteCartLine(ctx, c.userID, productID)
}

func (c *userCart) Clear(ctx context.Context) error {
	return c.q.ClearCart(ctx, c.userID)
}

type guestFavorites struct {
	sessions  *RedisSessionStore
	sessionID string
}

func (f *guestFavorites) Add(ctx context.Context, productID string) error {
	return f.sessions.AddFavorite(ctx, f.sessionID, productID)
}

func (f *guestFavorites) Remove(ctx context.Context, productID string) error {
	return f.sessions.RemoveFavorite(ctx, f.sessionID, productID)
}

func (f *guestFavorites) Contains(ctx context.Context, productID string) (bool, error) {
	return f.sessions.IsFavorite(ctx, f.sessionID, productID)
}

func (f *guestFavorites) Members(ctx context.Context) ([]string, error) {
	return f.sessions.FavoriteIDs(ctx, f.sessionID)
}

func (f *guestFavorites) Count(ctx context.Context) (int, error) {
	return f.sessions.CountFavorites(ctx, f.sessionID)
}

type userFavorites struct {
	q      *Queries
	userID string
	now    func() time.Time
}

func (f *userFavorites) Add(ctx context.Context, productID string) error {
	_, err := f.q.AddFavorite(ctx, f.userID, productID, f.now())
	return err
}

func (f *userFavorites) Remove(ctx context.Context, productID string) error {
	return f.q.RemoveFavorite(ctx, f.userID, productID)
}

func (f *userFavorites) Contains(ctx context.Context, productID string) (bool, error) {
	return f.q.IsFavorite(ctx, f.userID, productID)
}

func (f *userFavorites) Members(ctx context.Context) ([]string, error) {
	return f.q.ListFavoriteIDs(ctx, f.userID)
}

func (f *userFavorites) Count(ctx context.Context) (int, error) {
	return f.q.CountFavorites(ctx, f.userID)
}
