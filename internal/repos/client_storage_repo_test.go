package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopadmin/internal/domain"
	"shopadmin/internal/repos"
	"shopadmin/internal/session"
)

func newRepo(t *testing.T) *repos.ClientStorageRepo {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repos.NewClientStorageRepo(db)
}

func TestClientStorageNamespaces(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	a := r.For("client-a")
	b := r.For("client-b")
	require.NoError(t, a.SetItem(ctx, session.TokenKey, "tok-a"))
	require.NoError(t, a.SetItem(ctx, session.TokenKey, "tok-a2"))

	v, ok, err := a.GetItem(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-a2", v)

	_, ok, err = b.GetItem(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.RemoveItem(ctx, session.TokenKey))
	_, ok, _ = a.GetItem(ctx, session.TokenKey)
	assert.False(t, ok)
}

func TestManagerOverSQLite(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	m := session.NewManager(r.For("sid-1"))
	require.NoError(t, m.Activate(ctx))
	require.NoError(t, m.Login(ctx, "tok", domain.User{ID: "u1", Email: "a@b.com"}))

	// a fresh manager over the same namespace hydrates the session
	m2 := session.NewManager(r.For("sid-1"))
	require.NoError(t, m2.Activate(ctx))
	s, ok, err := m2.Current()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, "a@b.com", s.User.Email)
}

func TestPurgeIdle(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	require.NoError(t, r.For("old").SetItem(ctx, session.TokenKey, "x"))
	require.NoError(t, r.For("fresh").SetItem(ctx, session.TokenKey, "y"))
	_, err := r.DB.Exec(`UPDATE clients SET last_seen='2000-01-01 00:00:00' WHERE id='old'`)
	require.NoError(t, err)

	n, err := r.PurgeIdle(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, ok, _ := r.For("old").GetItem(ctx, session.TokenKey)
	assert.False(t, ok)
	_, ok, _ = r.For("fresh").GetItem(ctx, session.TokenKey)
	assert.True(t, ok)
}

func TestReadsKeepSessionFromPurge(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	m := session.NewManager(r.For("reader"))
	require.NoError(t, m.Activate(ctx))
	require.NoError(t, m.Login(ctx, "tok", domain.User{ID: "u1", Email: "a@b.com"}))
	_, err := r.DB.Exec(`UPDATE clients SET last_seen='2000-01-01 00:00:00' WHERE id='reader'`)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		m := session.NewManager(r.For("reader"))
		require.NoError(t, m.Activate(ctx))
		_, err := m.Token()
		require.NoError(t, err)
	}

	n, err := r.PurgeIdle(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	m = session.NewManager(r.For("reader"))
	require.NoError(t, m.Activate(ctx))
	tok, err := m.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
}

func TestMissingKeyDoesNotRegisterClient(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	_, ok, err := r.For("anon").GetItem(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	var count int
	require.NoError(t, r.DB.Get(&count, `SELECT COUNT(*) FROM clients WHERE id='anon'`))
	assert.Zero(t, count)
}
