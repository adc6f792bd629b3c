package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/devicecontrols/pkg/i18n"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "controls.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))
	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "devicecontrols.db", filepath.Base(path))
	assert.Equal(t, "devicecontrols", filepath.Base(filepath.Dir(path)))
}

func TestBootstrap(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	needed, err := db.NeedsBootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, needed)

	require.NoError(t, db.Bootstrap(ctx))
	require.NoError(t, db.Bootstrap(ctx))

	profiles, err := db.Profiles().List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, DefaultProfileName, profiles[0].Name)
	assert.True(t, profiles[0].IsActive)
	assert.Contains(t, i18n.Supported, profiles[0].Locale)

	cfg, err := db.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPAddress, cfg.APIAddress())
	assert.Empty(t, cfg.MQTTBroker())
	assert.Empty(t, cfg.CatalogPath())
	assert.Equal(t, profiles[0].Locale, cfg.Locale())
}

func TestActiveConfig_NoProfile(t *testing.T) {
	db := openTestDB(t)

	_, err := db.ActiveConfig(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveProfile)
}

func TestProfiles_CRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := db.Profiles()

	home := &Profile{Name: "home", Locale: "ja", Catalog: "/etc/controls.yaml"}
	require.NoError(t, store.Create(ctx, home))
	require.NotZero(t, home.ID)

	office := &Profile{Name: "office", Locale: "en"}
	require.NoError(t, store.Create(ctx, office))

	got, err := store.GetByName(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "ja", got.Locale)
	assert.Equal(t, "/etc/controls.yaml", got.Catalog)
	assert.False(t, got.IsActive)

	require.NoError(t, store.SetActive(ctx, office.ID))
	active, err := store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, office.ID, active.ID)

	require.NoError(t, store.SetActive(ctx, home.ID))
	active, err = store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, home.ID, active.ID)

	home.Locale = "en"
	require.NoError(t, store.Update(ctx, home))
	got, err = store.Get(ctx, home.ID)
	require.NoError(t, err)
	assert.Equal(t, "en", got.Locale)

	assert.ErrorIs(t, store.SetActive(ctx, 999), ErrProfileNotFound)
	assert.ErrorIs(t, store.Update(ctx, &Profile{ID: 999, Name: "x"}), ErrProfileNotFound)

	require.NoError(t, store.Delete(ctx, office.ID))
	assert.ErrorIs(t, store.Delete(ctx, office.ID), ErrProfileNotFound)
	_, err = store.Get(ctx, office.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestListeners(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Bootstrap(ctx))

	cfg, err := db.ActiveConfig(ctx)
	require.NoError(t, err)
	profileID := cfg.Profile.ID
	store := db.Listeners()

	require.NoError(t, store.Upsert(ctx, &Listener{ProfileID: profileID, Kind: ListenerMQTT, Address: "localhost:1883"}))
	require.NoError(t, store.Upsert(ctx, &Listener{ProfileID: profileID, Kind: ListenerHTTP, Address: "127.0.0.1:9090"}))

	listeners, err := store.List(ctx, profileID)
	require.NoError(t, err)
	require.Len(t, listeners, 2)

	cfg, err = db.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.APIAddress())
	assert.Equal(t, "localhost:1883", cfg.MQTTBroker())

	err = store.Upsert(ctx, &Listener{ProfileID: profileID, Kind: "grpc", Address: "x"})
	assert.Error(t, err)
	err = store.Upsert(ctx, &Listener{ProfileID: profileID, Kind: ListenerHTTP})
	assert.Error(t, err)

	require.NoError(t, store.Delete(ctx, profileID, ListenerMQTT))
	_, err = store.Get(ctx, profileID, ListenerMQTT)
	assert.ErrorIs(t, err, ErrListenerNotFound)
	assert.ErrorIs(t, store.Delete(ctx, profileID, ListenerMQTT), ErrListenerNotFound)
}

func TestListeners_CascadeOnProfileDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p := &Profile{Name: "temp", Locale: "en"}
	require.NoError(t, db.Profiles().Create(ctx, p))
	require.NoError(t, db.Listeners().Upsert(ctx, &Listener{ProfileID: p.ID, Kind: ListenerHTTP, Address: ":8080"}))

	require.NoError(t, db.Profiles().Delete(ctx, p.ID))

	listeners, err := db.Listeners().List(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, listeners)
}
