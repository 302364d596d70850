package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/imf-gadgets/gadget-api/internal/models"
	"github.com/imf-gadgets/gadget-api/internal/repo"
	"github.com/imf-gadgets/gadget-api/internal/repo/repotest"
	"github.com/imf-gadgets/gadget-api/internal/tokens"
)

type published struct {
	topic string
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic, key, event})
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		switch ev := e.event.(type) {
		case UserEvent:
			out = append(out, ev.Type)
		case GadgetEvent:
			out = append(out, ev.Type)
		}
	}
	return out
}

type fakeIndex struct {
	indexed   []uuid.UUID
	searchErr error
	hits      []models.Gadget
}

func (f *fakeIndex) IndexGadget(_ context.Context, g *models.Gadget) error {
	f.indexed = append(f.indexed, g.ID)
	return nil
}

func (f *fakeIndex) SearchGadgets(context.Context, uuid.UUID, string, int, int) (int64, []models.Gadget, error) {
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	return int64(len(f.hits)), f.hits, nil
}

func newStore(t *testing.T) *repo.GormRepo {
	return repo.New(repotest.Open(t))
}

func newUser(t *testing.T, r *repo.GormRepo, email string) *models.User {
	t.Helper()
	u, err := r.CreateUser(context.Background(), email, "hash")
	require.NoError(t, err)
	return u
}

var testCodec = tokens.NewCodec([]byte("service-secret"))

var errBoom = errors.New("boom")
