package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/imf-gadgets/gadget-api/internal/models"
)

var terminalStatuses = []string{string(models.StatusDestroyed), string(models.StatusDecommissioned)}

// GadgetUpdate carries the columns to change; nil fields are left alone.
type GadgetUpdate struct {
	Name             *string
	Status           *models.GadgetStatus
	DecommissionedAt *time.Time
}

func (u GadgetUpdate) empty() bool {
	return u.Name == nil && u.Status == nil && u.DecommissionedAt == nil
}

func (r *GormRepo) CreateGadget(ctx context.Context, ownerID uuid.UUID, name string) (*models.Gadget, error) {
	g := models.Gadget{OwnerID: ownerID, Name: name, Status: models.StatusAvailable}
	if err := r.DB.WithContext(ctx).Create(&g).Error; err != nil {
		return nil, translate("create gadget", err)
	}
	return &g, nil
}

func (r *GormRepo) GetGadget(ctx context.Context, id uuid.UUID) (*models.Gadget, error) {
	var g models.Gadget
	found, err := first(r.DB.WithContext(ctx).Where("id = ?", id), &g)
	if err != nil {
		return nil, translate("get gadget", err)
	}
	if !found {
		return nil, nil
	}
	return &g, nil
}

func (r *GormRepo) GetOwnedGadget(ctx context.Context, ownerID, id uuid.UUID) (*models.Gadget, error) {
	return getOwned(r.DB.WithContext(ctx), ownerID, id)
}

func getOwned(db *gorm.DB, ownerID, id uuid.UUID) (*models.Gadget, error) {
	var g models.Gadget
	found, err := first(db.Where("owner_id = ? AND id = ?", ownerID, id), &g)
	if err != nil {
		return nil, translate("get owned gadget", err)
	}
	if !found {
		return nil, nil
	}
	return &g, nil
}

func (r *GormRepo) GetUserGadgets(ctx context.Context, ownerID uuid.UUID, status *models.GadgetStatus) ([]models.Gadget, error) {
	q := r.DB.WithContext(ctx).Where("owner_id = ?", ownerID)
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}

	gadgets := []models.Gadget{}
	if err := q.Order("created_at ASC, id ASC").Find(&gadgets).Error; err != nil {
		return nil, translate("list gadgets", err)
	}
	return gadgets, nil
}

// UpdateGadgetIfOwned applies upd to a gadget owned by ownerID. When the
// status changes, gadgets already in a terminal status are not matched.
func (r *GormRepo) UpdateGadgetIfOwned(ctx context.Context, ownerID, id uuid.UUID, upd GadgetUpdate) (*models.Gadget, error) {
	if upd.empty() {
		return nil, &QueryError{Kind: Unknown, Message: "update gadget: nothing to update"}
	}

	cols := map[string]any{}
	if upd.Name != nil {
		cols["name"] = *upd.Name
	}
	if upd.Status != nil {
		cols["status"] = string(*upd.Status)
	}
	if upd.DecommissionedAt != nil {
		cols["decommissioned_at"] = *upd.DecommissionedAt
	}

	var out *models.Gadget
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Gadget{}).Where("owner_id = ? AND id = ?", ownerID, id)
		if upd.Status != nil {
			q = q.Where("status NOT IN ?", terminalStatuses)
		}
		res := q.Updates(cols)
		if res.Error != nil {
			return translate("update gadget", res.Error)
		}
		if res.RowsAffected == 0 {
			return noMatch("update gadget: no owned gadget matched")
		}

		g, err := getOwned(tx, ownerID, id)
		if err != nil {
			return err
		}
		if g == nil {
			return noMatch("update gadget: row vanished")
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, translate("update gadget", err)
	}
	return out, nil
}

// TransitionGadget moves a non-terminal owned gadget into the terminal status
// to and stamps decommissioned_at. The bool reports whether this call applied
// the change; when false the returned gadget shows the status that blocked it.
func (r *GormRepo) TransitionGadget(ctx context.Context, ownerID, id uuid.UUID, to models.GadgetStatus, at time.Time) (*models.Gadget, bool, error) {
	var (
		out     *models.Gadget
		applied bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Gadget{}).
			Where("owner_id = ? AND id = ? AND status NOT IN ?", ownerID, id, terminalStatuses).
			Updates(map[string]any{"status": string(to), "decommissioned_at": at})
		if res.Error != nil {
			return translate("transition gadget", res.Error)
		}
		applied = res.RowsAffected > 0

		g, err := getOwned(tx, ownerID, id)
		if err != nil {
			return err
		}
		if g == nil {
			return noMatch("transition gadget: no owned gadget matched")
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, false, translate("transition gadget", err)
	}
	return out, applied, nil
}

// SearchGadgets is a case-insensitive substring match on the codename.
func (r *GormRepo) SearchGadgets(ctx context.Context, ownerID uuid.UUID, q string, from, size int) (int64, []models.Gadget, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	base := r.DB.WithContext(ctx).
		Model(&models.Gadget{}).
		Where("owner_id = ? AND LOWER(name) LIKE ? ESCAPE '\\'", ownerID, pattern)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, translate("search gadgets", err)
	}

	gadgets := []models.Gadget{}
	err := base.Session(&gorm.Session{}).
		Order("name ASC").
		Offset(from).
		Limit(size).
		Find(&gadgets).Error
	if err != nil {
		return 0, nil, translate("search gadgets", err)
	}
	return total, gadgets, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
