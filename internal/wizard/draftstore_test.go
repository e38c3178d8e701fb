package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/cofoundr-waitlist/internal/profile"
)

func setupDraftStore(t *testing.T) (*DraftStore, *miniredis.Miniredis) {
	miniRedis, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(miniRedis.Close)

	rdb := redis.NewClient(&redis.Options{Addr: miniRedis.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewDraftStore(rdb, time.Hour, 30*time.Second), miniRedis
}

func TestDraftStoreLoadMissingReturnsFreshState(t *testing.T) {
	store, _ := setupDraftStore(t)

	st, err := store.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", st.UserID)
	assert.Equal(t, 0, st.Step)
	assert.Equal(t, Forward, st.Direction)
}

func TestDraftStoreFind(t *testing.T) {
	store, _ := setupDraftStore(t)
	ctx := context.Background()

	_, err := store.Find(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNoDraft)

	st := NewState("user-1")
	st.Draft.Username = "ada"
	require.NoError(t, store.Save(ctx, st))

	found, err := store.Find(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "ada", found.Draft.Username)

	require.NoError(t, store.Delete(ctx, "user-1"))
	_, err = store.Find(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestDraftStoreRoundTrip(t *testing.T) {
	store, miniRedis := setupDraftStore(t)
	ctx := context.Background()

	st := NewState("user-1")
	st.Step = 3
	st.Draft.Username = "ada"
	st.Draft.CoreSkills = profile.List{"Go"}
	st.Draft.SetAvatar(&profile.Upload{Filename: "me.png", ContentType: "image/png", Size: 4, Data: []byte("\x89PNG")})
	require.NoError(t, store.Save(ctx, st))

	assert.True(t, miniRedis.Exists("wizard:user-1"))
	assert.True(t, miniRedis.Exists("wizard:user-1:avatar"))
	assert.Equal(t, time.Hour, miniRedis.TTL("wizard:user-1"))

	stored, err := miniRedis.Get("wizard:user-1")
	require.NoError(t, err)
	assert.NotContains(t, stored, "iVBO", "avatar bytes are kept out of the draft document")

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Step)
	assert.Equal(t, "ada", loaded.Draft.Username)
	assert.Equal(t, profile.List{"Go"}, loaded.Draft.CoreSkills)
	require.NotNil(t, loaded.Draft.Avatar)
	assert.Equal(t, []byte("\x89PNG"), loaded.Draft.Avatar.Data)

	loaded.Draft.RemoveAvatar()
	require.NoError(t, store.Save(ctx, loaded))
	assert.False(t, miniRedis.Exists("wizard:user-1:avatar"))

	loaded, err = store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, loaded.Draft.Avatar)
	assert.True(t, loaded.Draft.AvatarRemoved)
}

func TestDraftStoreExpiredAvatarBytes(t *testing.T) {
	store, miniRedis := setupDraftStore(t)
	ctx := context.Background()

	st := NewState("user-1")
	st.Draft.SetAvatar(&profile.Upload{Filename: "me.png", ContentType: "image/png", Size: 4, Data: []byte("\x89PNG")})
	require.NoError(t, store.Save(ctx, st))
	miniRedis.Del("wizard:user-1:avatar")

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, loaded.Draft.Avatar)
}

func TestDraftStoreExpires(t *testing.T) {
	store, miniRedis := setupDraftStore(t)
	ctx := context.Background()

	st := NewState("user-1")
	st.Draft.Username = "ada"
	require.NoError(t, store.Save(ctx, st))

	miniRedis.FastForward(2 * time.Hour)

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Draft.Username)
}

func TestDraftStoreLock(t *testing.T) {
	store, miniRedis := setupDraftStore(t)
	ctx := context.Background()

	ok, err := store.Lock(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Lock(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok, "second submit is rejected while the first is pending")

	require.NoError(t, store.Unlock(ctx, "user-1"))
	ok, err = store.Lock(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	miniRedis.FastForward(time.Minute)
	ok, err = store.Lock(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok, "lock expires on its own")
}

func TestDraftStoreDelete(t *testing.T) {
	store, miniRedis := setupDraftStore(t)
	ctx := context.Background()

	st := NewState("user-1")
	st.Draft.SetAvatar(&profile.Upload{ContentType: "image/png", Size: 1, Data: []byte("x")})
	require.NoError(t, store.Save(ctx, st))
	_, err := store.Lock(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "user-1"))
	assert.False(t, miniRedis.Exists("wizard:user-1"))
	assert.False(t, miniRedis.Exists("wizard:user-1:avatar"))
	assert.False(t, miniRedis.Exists("wizard:user-1:submitting"))
}
