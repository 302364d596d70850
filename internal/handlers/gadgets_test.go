package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imf-gadgets/gadget-api/internal/apierr"
	"github.com/imf-gadgets/gadget-api/internal/models"
)

func (env *testEnv) gadget(owner *models.User, name string) *models.Gadget {
	g, err := env.Store.CreateGadget(env.T.Context(), owner.ID, name)
	require.NoError(env.T, err)
	return g
}

func withGadgetID(c echo.Context, id string) echo.Context {
	c.SetParamNames("gadgetId")
	c.SetParamValues(id)
	return c
}

func TestListGadgets(t *testing.T) {
	env := newTestEnv(t)
	me := env.user("ethan@imf.gov")

	c, rec := env.as(me, http.MethodGet, "/api/gadgets", nil)
	require.NoError(t, env.G.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Successfully fetched gadgets","gadgets":[]}`, rec.Body.String())

	env.gadget(me, "The Kraken")
	env.gadget(env.user("other@imf.gov"), "The Nightingale")

	c, rec = env.as(me, http.MethodGet, "/api/gadgets?status=Available", nil)
	require.NoError(t, env.G.List(c))
	body := decodeMap(t, rec)
	gadgets := body["gadgets"].([]any)
	require.Len(t, gadgets, 1)
	g := gadgets[0].(map[string]any)
	assert.Equal(t, "The Kraken", g["name"])
	assert.Equal(t, "Available", g["status"])
	assert.Contains(t, g, "missionSuccessProbability")
	assert.Nil(t, g["decommissionedAt"])

	c, rec = env.as(me, http.MethodGet, "/api/gadgets?status=Deployed", nil)
	require.NoError(t, env.G.List(c))
	assert.Empty(t, decodeMap(t, rec)["gadgets"])
}

func TestCreateGadget(t *testing.T) {
	env := newTestEnv(t)
	me := env.user("ethan@imf.gov")

	c, rec := env.as(me, http.MethodPost, "/api/gadgets", nil)
	require.NoError(t, env.G.Create(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	assert.Equal(t, "Successfully created gadget", body["message"])
	g := body["gadget"].(map[string]any)
	assert.Regexp(t, `^The \S+ \S+ [A-Z2-9]{3}$`, g["name"])
	assert.Equal(t, "Available", g["status"])
	assert.Equal(t, me.ID.String(), g["ownerId"])
}

func TestCreateGadgetForDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	ghost := &models.User{ID: uuid.New(), Email: "ghost@imf.gov"}

	c, rec := env.as(ghost, http.MethodPost, "/api/gadgets", nil)
	require.NoError(t, env.G.Create(c))
	requireError(t, rec, http.StatusBadRequest, apierr.InvalidUserID)
}

func TestUpdateGadget(t *testing.T) {
	env := newTestEnv(t)
	me := env.user("ethan@imf.gov")
	g := env.gadget(me, "The Kraken")

	c, rec := env.as(me, http.MethodPatch, "/api/gadgets", map[string]any{
		"id":     g.ID.String(),
		"name":   "The Phoenix",
		"status": "Deployed",
	})
	require.NoError(t, env.G.Update(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeMap(t, rec)
	assert.Equal(t, "Successfully updated gadget info", body["message"])
	out := body["gadget"].(map[string]any)
	assert.Equal(t, "The Phoenix", out["name"])
	assert.Equal(t, "Deployed", out["status"])
}

func TestUpdateGadgetToTerminalStampsTime(t *testing.T) {
	env := newTestEnv(t)
	me := env.user("ethan@imf.gov")
	g := env.gadget(me, "The Kraken")

	c, rec := env.as(me, http.MethodPatch, "/api/gadgets", map[string]any{
		"id": g.ID.String(), "status": "Decommissioned",
	})
	require.NoError(t, env.G.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decodeMap(t, rec)["gadget"].(map[string]any)["decommissionedAt"])

	c, rec = env.as(me, http.MethodPatch, "/api/gadgets", map[string]any{
		"id": g.ID.String(), "status": "Available",
	})
	require.NoError(t, env.G.Update(c))
	requireError(t, rec, http.StatusBadRequest, apierr.GadgetAlreadyDecommissioned)
}

func TestUpdateGadgetValidation(t *testing.T) {
	env := newTestEnv(t)
	me := env.user("ethan@imf.gov")
	g := env.gadget(me, "The Kraken")

	cases := map[string]map[string]any{
		"nothing to change": {"id": g.ID.String()},
		"bad status":        {"id": g.ID.String(), "status": "Lost"},
		"empty name":        {"id": g.ID.String(), "name": ""},
		"malformed id":      {"id": "42", "name": "The Owl"},
		"missing id":        {"name": "The Owl"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, rec := env.as(me, http.MethodPatch, "/api/gadgets", body)
			require.NoError(t, env.G.Update(c))
			r := requireError(t, rec, http.StatusBadRequest, apierr.ValidationError)
			assert.NotNil(t, r.Details)
		})
	}
}

func TestUpdateGadgetConflicts(t *testing.T) {
	env := newTestEnv(t)
	me := env.user("ethan@imf.gov")
	mine := env.gadget(me, "The Kraken")
	env.gadget(me, "The Phoenix")
	theirs := env.gadget(env.user("other@imf.gov"), "The Nightingale")

	c, rec := env.as(me, http.MethodPatch, "/api/gadgets", map[string]any{
		"id": mine.ID.String(), "name": "The Phoenix",
	})
	require.NoError(t, env.G.Update(c))
	r := requireError(t, rec, http.StatusBadRequest, apierr.DuplicateName)
	assert.Equal(t, "Another gadget with this name already exists", r.ErrorMessage)

	c, rec = env.as(me, http.MethodPatch, "/api/gadgets", map[string]any{
		"id": theirs.ID.String(), "name": "The Owl",
	})
	require.NoError(t, env.G.Update(c))
	r = requireError(t, rec, http.StatusBadRequest, apierr.InvalidGadgetID)
	assert.Equal(t, "You don't have any gadget with this Id", r.ErrorMessage)
}

func TestDecommissionGadget(t *testing.T) {
	env := newTestEnv(t)
	me := env.user("ethan@imf.gov")
	viaQuery := env.gadget(me, "The Kraken")
	viaBody := env.gadget(me, "The Phoenix")

	c, rec := env.as(me, http.MethodDelete, "/api/gadgets?id="+viaQuery.ID.String(), nil)
	require.NoError(t, env.G.Decommission(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Gadget was decommissioned successfully"}`, rec.Body.String())

	c, rec = env.as(me, http.MethodDelete, "/api/gadgets", map[string]string{"id": viaBody.ID.String()})
	require.NoError(t, env.G.Decommission(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := env.Store.GetGadget(t.Context(), viaBody.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDecommissioned, got.Status)
	assert.NotNil(t, got.DecommissionedAt)

	c, rec = env.as(me, http.MethodDelete, "/api/gadgets?id="+viaQuery.ID.String(), nil)
	require.NoError(t, env.G.Decommission(c))
	r := requireError(t, rec, http.StatusBadRequest, apierr.GadgetAlreadyDecommissioned)
	assert.Equal(t, "Gadget is already decommissioned", r.ErrorMessage)
}

func TestDecommissionGadgetBadInput(t *testing.T) {
	env := newTestEnv(t)
	me := env.user("ethan@imf.gov")
	theirs := env.gadget(env.user("other@imf.gov"), "The Nightingale")

	c, rec := env.as(me, http.MethodDelete, "/api/gadgets", nil)
	require.NoError(t, env.G.Decommission(c))
	requireError(t, rec, http.StatusBadRequest, apierr.ValidationError)

	c, rec = env.as(me, http.MethodDelete, "/api/gadgets?id=not-a-uuid", nil)
	require.NoError(t, env.G.Decommission(c))
	requireError(t, rec, http.StatusBadRequest, apierr.InvalidGadgetID)

	c, rec = env.as(me, http.MethodDelete, "/api/gadgets?id="+theirs.ID.String(), nil)
	require.NoError(t, env.G.Decommission(c))
	requireError(t, rec, http.StatusBadRequest, apierr.InvalidGadgetID)
}

func TestSelfDestructGadget(t *testing.T) {
	env := newTestEnv(t)
	me := env.user("ethan@imf.gov")
	g := env.gadget(me, "The Kraken")
	target := fmt.Sprintf("/api/gadgets/%s/self-destruct", g.ID)

	c, rec := env.as(me, http.MethodPost, target, map[string]string{"code": "000000"})
	require.NoError(t, env.G.SelfDestruct(withGadgetID(c, g.ID.String())))
	r := requireError(t, rec, http.StatusBadRequest, apierr.InvalidCode)
	assert.Equal(t, "Confirmation code is incorrect", r.ErrorMessage)

	c, rec = env.as(me, http.MethodPost, target, map[string]string{"code": "123"})
	require.NoError(t, env.G.SelfDestruct(withGadgetID(c, g.ID.String())))
	requireError(t, rec, http.StatusBadRequest, apierr.ValidationError)

	c, rec = env.as(me, http.MethodPost, target, map[string]string{"code": "123123"})
	require.NoError(t, env.G.SelfDestruct(withGadgetID(c, g.ID.String())))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Gadget was destroyed successfully"}`, rec.Body.String())

	c, rec = env.as(me, http.MethodPost, target, map[string]string{"code": "123123"})
	require.NoError(t, env.G.SelfDestruct(withGadgetID(c, g.ID.String())))
	requireError(t, rec, http.StatusBadRequest, apierr.GadgetAlreadyDestroyed)

	c, rec = env.as(me, http.MethodDelete, "/api/gadgets?id="+g.ID.String(), nil)
	require.NoError(t, env.G.Decommission(c))
	requireError(t, rec, http.StatusBadRequest, apierr.GadgetAlreadyDestroyed)
}

func TestSelfDestructUnknownGadget(t *testing.T) {
	env := newTestEnv(t)
	me := env.user("ethan@imf.gov")

	for _, id := range []string{"garbage", uuid.NewString()} {
		c, rec := env.as(me, http.MethodPost, "/api/gadgets/"+id+"/self-destruct", map[string]string{"code": "123123"})
		require.NoError(t, env.G.SelfDestruct(withGadgetID(c, id)))
		requireError(t, rec, http.StatusBadRequest, apierr.InvalidGadgetID)
	}
}

func TestSearchGadgets(t *testing.T) {
	env := newTestEnv(t)
	me := env.user("ethan@imf.gov")
	env.gadget(me, "The Silent Kraken")
	env.gadget(me, "The Loud Kraken")
	env.gadget(me, "The Phoenix")
	env.gadget(env.user("other@imf.gov"), "The Other Kraken")

	c, rec := env.as(me, http.MethodGet, "/api/gadgets/search?q=kraken&size=1", nil)
	require.NoError(t, env.G.Search(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeMap(t, rec)
	assert.Equal(t, "Successfully searched gadgets", body["message"])
	assert.EqualValues(t, 2, body["total"])
	gadgets := body["gadgets"].([]any)
	require.Len(t, gadgets, 1)
	assert.Equal(t, "The Loud Kraken", gadgets[0].(map[string]any)["name"])

	c, rec = env.as(me, http.MethodGet, "/api/gadgets/search", nil)
	require.NoError(t, env.G.Search(c))
	requireError(t, rec, http.StatusBadRequest, apierr.ValidationError)
}
