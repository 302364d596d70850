package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/imf-gadgets/gadget-api/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	user := models.User{Email: email, PasswordHash: passwordHash}
	if err := r.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, translate("create user", err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	found, err := first(r.DB.WithContext(ctx).Where("email = ?", email), &user)
	if err != nil {
		return nil, translate("get user by email", err)
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

func (r *GormRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	found, err := first(r.DB.WithContext(ctx).Where("id = ?", id), &user)
	if err != nil {
		return nil, translate("get user", err)
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}
