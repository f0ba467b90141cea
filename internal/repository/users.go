package repository

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const userColumns = `id, name, email, phone, password_hash, created_at`

func (q *Queries) CreateUser(ctx context.Context, u *models.User) error {
	_, err := q.exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.New(errors.CodeConflict, "an account with this email or phone already exists")
		}
		return q.fail("create user", err, logging.Fields{"email": u.Email})
	}
	return nil
}

func (q *Queries) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, q.fail("get user", err, logging.Fields{"user_id": id})
	}
	return &u, nil
}

// FindUserByLogin looks a user up by email or phone number.
func (q *Queries) FindUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	var u models.User
	err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ? OR phone = ?`, identifier, identifier)
	if err != nil {
		return nil, q.fail("find user", err, nil)
	}
	return &u, nil
}
