package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/imf-gadgets/gadget-api/internal/codename"
	"github.com/imf-gadgets/gadget-api/internal/logging"
	"github.com/imf-gadgets/gadget-api/internal/models"
	"github.com/imf-gadgets/gadget-api/internal/repo"
	"github.com/imf-gadgets/gadget-api/internal/util"
)

const (
	SelfDestructCode = "123123"

	createAttempts = 5
)

type GadgetStore interface {
	CreateGadget(ctx context.Context, ownerID uuid.UUID, name string) (*models.Gadget, error)
	GetOwnedGadget(ctx context.Context, ownerID, id uuid.UUID) (*models.Gadget, error)
	GetUserGadgets(ctx context.Context, ownerID uuid.UUID, status *models.GadgetStatus) ([]models.Gadget, error)
	UpdateGadgetIfOwned(ctx context.Context, ownerID, id uuid.UUID, upd repo.GadgetUpdate) (*models.Gadget, error)
	TransitionGadget(ctx context.Context, ownerID, id uuid.UUID, to models.GadgetStatus, at time.Time) (*models.Gadget, bool, error)
	Searcher
}

type Searcher interface {
	SearchGadgets(ctx context.Context, ownerID uuid.UUID, q string, from, size int) (int64, []models.Gadget, error)
}

// SearchIndex is an external search backend kept in sync on every mutation.
type SearchIndex interface {
	Searcher
	IndexGadget(ctx context.Context, g *models.Gadget) error
}

type GadgetService struct {
	Store  GadgetStore
	Events Publisher
	Index  SearchIndex

	NewName     func() string
	Now         func() time.Time
	Probability func() int
}

func NewGadgetService(store GadgetStore, events Publisher, index SearchIndex) *GadgetService {
	return &GadgetService{
		Store:       store,
		Events:      events,
		Index:       index,
		NewName:     codename.New,
		Now:         time.Now,
		Probability: func() int { return rand.IntN(100) },
	}
}

// GadgetView is a gadget as the API returns it.
type GadgetView struct {
	models.Gadget
	MissionSuccessProbability int `json:"missionSuccessProbability"`
}

func (s *GadgetService) List(ctx context.Context, owner uuid.UUID, rawStatus string) ([]GadgetView, error) {
	var filter *models.GadgetStatus
	if st, ok := models.ParseGadgetStatus(rawStatus); ok {
		filter = &st
	}

	gadgets, err := s.Store.GetUserGadgets(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("list gadgets: %w", err)
	}

	views := make([]GadgetView, len(gadgets))
	for i, g := range gadgets {
		views[i] = GadgetView{Gadget: g, MissionSuccessProbability: s.Probability()}
	}
	return views, nil
}

// Create retries with a fresh codename when the random one is already taken.
func (s *GadgetService) Create(ctx context.Context, owner uuid.UUID) (*models.Gadget, error) {
	l := logging.FromContext(ctx)
	for attempt := 1; attempt <= createAttempts; attempt++ {
		name := s.NewName()
		g, err := s.Store.CreateGadget(ctx, owner, name)
		if err == nil {
			s.afterWrite(ctx, "gadget_created", g)
			return g, nil
		}

		switch repo.KindOf(err) {
		case repo.UniqueViolation:
			l.Debug("codename_collision", "name", name, "attempt", attempt)
		case repo.IntegrityViolation:
			return nil, ErrInvalidUserID
		default:
			return nil, fmt.Errorf("create gadget: %w", err)
		}
	}
	return nil, ErrDuplicateName
}

func (s *GadgetService) Update(ctx context.Context, owner, id uuid.UUID, name *string, status *models.GadgetStatus) (*models.Gadget, error) {
	if name == nil && status == nil {
		return nil, ErrNothingToUpdate
	}

	upd := repo.GadgetUpdate{Name: name, Status: status}
	if status != nil && status.Terminal() {
		at := s.Now()
		upd.DecommissionedAt = &at
	}

	g, err := s.Store.UpdateGadgetIfOwned(ctx, owner, id, upd)
	switch repo.KindOf(err) {
	case repo.NoMatch:
		return nil, s.explainNoMatch(ctx, owner, id, status != nil)
	case repo.UniqueViolation:
		return nil, ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("update gadget: %w", err)
	}

	s.afterWrite(ctx, "gadget_updated", g)
	return g, nil
}

// explainNoMatch tells a missing gadget apart from one frozen in a terminal status.
func (s *GadgetService) explainNoMatch(ctx context.Context, owner, id uuid.UUID, statusChange bool) error {
	if !statusChange {
		return ErrInvalidGadgetID
	}
	cur, err := s.Store.GetOwnedGadget(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("get gadget: %w", err)
	}
	if cur == nil || !cur.Status.Terminal() {
		return ErrInvalidGadgetID
	}
	return alreadyTerminal(cur.Status)
}

func (s *GadgetService) Decommission(ctx context.Context, owner, id uuid.UUID) (*models.Gadget, error) {
	return s.transition(ctx, owner, id, models.StatusDecommissioned, "gadget_decommissioned")
}

func (s *GadgetService) SelfDestruct(ctx context.Context, owner, id uuid.UUID, code string) (*models.Gadget, error) {
	if code != SelfDestructCode {
		return nil, ErrInvalidCode
	}
	return s.transition(ctx, owner, id, models.StatusDestroyed, "gadget_destroyed")
}

func (s *GadgetService) transition(ctx context.Context, owner, id uuid.UUID, to models.GadgetStatus, event string) (*models.Gadget, error) {
	g, applied, err := s.Store.TransitionGadget(ctx, owner, id, to, s.Now())
	if repo.KindOf(err) == repo.NoMatch {
		return nil, ErrInvalidGadgetID
	}
	if err != nil {
		return nil, fmt.Errorf("transition gadget: %w", err)
	}
	if !applied {
		return nil, alreadyTerminal(g.Status)
	}

	s.afterWrite(ctx, event, g)
	return g, nil
}

// Search pages through the owner's gadgets whose codename matches q.
func (s *GadgetService) Search(ctx context.Context, owner uuid.UUID, q string, page, size int) (int64, []models.Gadget, error) {
	from, limit := util.Paginate(page, size)

	if s.Index != nil {
		total, gadgets, err := s.Index.SearchGadgets(ctx, owner, q, from, limit)
		if err == nil {
			return total, gadgets, nil
		}
		logging.FromContext(ctx).Warn("es_search_failed", "error", err, "fallback", "db")
	}

	total, gadgets, err := s.Store.SearchGadgets(ctx, owner, q, from, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("search gadgets: %w", err)
	}
	return total, gadgets, nil
}

func (s *GadgetService) afterWrite(ctx context.Context, event string, g *models.Gadget) {
	publishGadget(ctx, s.Events, event, g, s.Now())

	if s.Index == nil {
		return
	}
	if err := s.Index.IndexGadget(context.WithoutCancel(ctx), g); err != nil {
		logging.FromContext(ctx).Error("es_index_failed", "gadget_id", g.ID, "error", err)
	}
}
