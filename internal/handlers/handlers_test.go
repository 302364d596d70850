package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/imf-gadgets/gadget-api/internal/apierr"
	"github.com/imf-gadgets/gadget-api/internal/cookies"
	"github.com/imf-gadgets/gadget-api/internal/middleware/auth"
	"github.com/imf-gadgets/gadget-api/internal/models"
	"github.com/imf-gadgets/gadget-api/internal/mykafka"
	"github.com/imf-gadgets/gadget-api/internal/repo"
	"github.com/imf-gadgets/gadget-api/internal/repo/repotest"
	"github.com/imf-gadgets/gadget-api/internal/service"
	"github.com/imf-gadgets/gadget-api/internal/tokens"
)

type testEnv struct {
	T     *testing.T
	E     *echo.Echo
	Store *repo.GormRepo
	Codec *tokens.Codec
	A     *AuthHandler
	G     *GadgetHandler
}

func newTestEnv(t *testing.T) *testEnv {
	store := repo.New(repotest.Open(t))
	codec := tokens.NewCodec([]byte("handler-secret"))
	return &testEnv{
		T:     t,
		E:     echo.New(),
		Store: store,
		Codec: codec,
		A: &AuthHandler{
			Auth:    service.NewAuthService(store, codec, mykafka.Nop{}),
			Cookies: cookies.Builder{},
		},
		G: &GadgetHandler{Gadgets: service.NewGadgetService(store, mykafka.Nop{}, nil)},
	}
}

func (env *testEnv) request(method, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return env.E.NewContext(req, rec), rec
}

// as runs the request with the identity the session middleware would set.
func (env *testEnv) as(user *models.User, method, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := env.request(method, target, body)
	auth.WithIdentity(c, auth.Identity{ID: user.ID, Email: user.Email})
	return c, rec
}

func (env *testEnv) user(email string) *models.User {
	u, err := env.A.Auth.Signup(env.T.Context(), email, "password")
	require.NoError(env.T, err)
	return u
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apierr.Response {
	t.Helper()
	var r apierr.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return r
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) apierr.Response {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	r := decodeError(t, rec)
	require.Equal(t, code, r.Error)
	return r
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
