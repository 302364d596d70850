package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/imf-gadgets/gadget-api/internal/models"
)

func (r *GormRepo) AddRefreshToken(ctx context.Context, userID uuid.UUID, token string) (*models.RefreshToken, error) {
	rt := models.RefreshToken{UserID: userID, Token: token}
	if err := r.DB.WithContext(ctx).Create(&rt).Error; err != nil {
		return nil, translate("add refresh token", err)
	}
	return &rt, nil
}

// IsRefreshTokenValid reports whether the exact token string is stored for the user.
func (r *GormRepo) IsRefreshTokenValid(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND token = ?", userID, token).
		Count(&n).Error
	if err != nil {
		return false, translate("check refresh token", err)
	}
	return n > 0, nil
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, userID uuid.UUID, token string) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, translate("revoke refresh token", res.Error)
	}
	return res.RowsAffected, nil
}
