package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/imf-gadgets/gadget-api/internal/models"
)

// GadgetIndex keeps a searchable copy of gadgets, one document per gadget id.
type GadgetIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewGadgetIndex(client *elasticsearch.Client, index string) *GadgetIndex {
	return &GadgetIndex{ES: client, Index: index}
}

type gadgetDoc struct {
	ID               uuid.UUID           `json:"id"`
	OwnerID          uuid.UUID           `json:"ownerId"`
	Name             string              `json:"name"`
	Status           models.GadgetStatus `json:"status"`
	DecommissionedAt *time.Time          `json:"decommissionedAt"`
}

var mapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":               map[string]any{"type": "keyword"},
			"ownerId":          map[string]any{"type": "keyword"},
			"name":             map[string]any{"type": "text"},
			"status":           map[string]any{"type": "keyword"},
			"decommissionedAt": map[string]any{"type": "date"},
		},
	},
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (g *GadgetIndex) EnsureIndex(ctx context.Context) error {
	res, err := g.ES.Indices.Exists([]string{g.Index}, g.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, err := encode(mapping)
	if err != nil {
		return err
	}
	res, err = g.ES.Indices.Create(g.Index,
		g.ES.Indices.Create.WithContext(ctx),
		g.ES.Indices.Create.WithBody(body),
	)
	if err != nil {
		return fmt.Errorf("es: create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.Status(), res.Body)
	}
	return nil
}

func (g *GadgetIndex) IndexGadget(ctx context.Context, gadget *models.Gadget) error {
	body, err := encode(gadgetDoc{
		ID:               gadget.ID,
		OwnerID:          gadget.OwnerID,
		Name:             gadget.Name,
		Status:           gadget.Status,
		DecommissionedAt: gadget.DecommissionedAt,
	})
	if err != nil {
		return err
	}

	res, err := g.ES.Index(g.Index, body,
		g.ES.Index.WithDocumentID(gadget.ID.String()),
		g.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: index gadget: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index gadget", res.Status(), res.Body)
	}
	return nil
}

// SearchGadgets runs a fuzzy codename match restricted to the owner's gadgets.
func (g *GadgetIndex) SearchGadgets(ctx context.Context, ownerID uuid.UUID, q string, from, size int) (int64, []models.Gadget, error) {
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"match": map[string]any{
						"name": map[string]any{"query": q, "fuzziness": "AUTO"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"ownerId": ownerID.String()},
				},
			},
		},
		"from": from,
		"size": size,
	}
	body, err := encode(query)
	if err != nil {
		return 0, nil, err
	}

	res, err := g.ES.Search(
		g.ES.Search.WithContext(ctx),
		g.ES.Search.WithIndex(g.Index),
		g.ES.Search.WithBody(body),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source gadgetDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("es: decode search: %w", err)
	}

	gadgets := make([]models.Gadget, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		d := hit.Source
		gadgets[i] = models.Gadget{
			ID:               d.ID,
			OwnerID:          d.OwnerID,
			Name:             d.Name,
			Status:           d.Status,
			DecommissionedAt: d.DecommissionedAt,
		}
	}
	return r.Hits.Total.Value, gadgets, nil
}

func encode(v any) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("es: encode: %w", err)
	}
	return &buf, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 1024))
	return fmt.Errorf("es: %s returned %s: %s", op, status, b)
}
