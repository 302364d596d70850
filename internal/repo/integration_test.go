package repo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/imf-gadgets/gadget-api/internal/config"
	"github.com/imf-gadgets/gadget-api/internal/models"
)

func setupPostgres(t *testing.T) string {
	t.Helper()
	if os.Getenv("GADGETS_INTEGRATION") != "1" {
		t.Skip("set GADGETS_INTEGRATION=1 to run postgres integration tests")
	}

	ctx := context.Background()
	pg, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("gadgets"),
		postgres.WithUsername("imf"),
		postgres.WithPassword("imf"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresErrorTranslation(t *testing.T) {
	dsn := setupPostgres(t)

	for _, driver := range []string{config.DriverPgx, config.DriverPQ} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			db, err := config.OpenDB(ctx, driver, dsn)
			require.NoError(t, err)
			r := New(db)
			t.Cleanup(func() {
				r.DB.Exec("DELETE FROM refresh_tokens")
				r.DB.Exec("DELETE FROM gadgets")
				r.DB.Exec("DELETE FROM users")
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			})

			u, err := r.CreateUser(ctx, "hunt@imf.gov", "hash")
			require.NoError(t, err)

			_, err = r.CreateUser(ctx, "hunt@imf.gov", "hash")
			assert.Equal(t, UniqueViolation, KindOf(err))

			_, err = r.AddRefreshToken(ctx, uuid.New(), "tok")
			assert.Equal(t, IntegrityViolation, KindOf(err))

			err = translate("insert", r.DB.Create(&models.Gadget{OwnerID: u.ID, Name: "The Ghost", Status: "Lost"}).Error)
			assert.Equal(t, CheckViolation, KindOf(err))

			g, err := r.CreateGadget(ctx, u.ID, "The Ghost")
			require.NoError(t, err)

			out, applied, err := r.TransitionGadget(ctx, u.ID, g.ID, models.StatusDestroyed, time.Now())
			require.NoError(t, err)
			assert.True(t, applied)
			assert.Equal(t, models.StatusDestroyed, out.Status)

			total, hits, err := r.SearchGadgets(ctx, u.ID, "ghost", 0, 5)
			require.NoError(t, err)
			assert.EqualValues(t, 1, total)
			assert.Len(t, hits, 1)

			var ids []uuid.UUID
			for i := 0; i < 8; i++ {
				g, err := r.CreateGadget(ctx, u.ID, fmt.Sprintf("The Racer %d", i))
				require.NoError(t, err)
				ids = append(ids, g.ID)
			}
			renamed, kinds := renameConcurrently(t, r, u.ID, ids, "The Finish Line")
			assert.Equal(t, 1, renamed)
			assert.Equal(t, map[Kind]int{UniqueViolation: 7}, kinds)
		})
	}
}
