package smartlink_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/podpulse/internal/smartlink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreator_Create(t *testing.T) {
	gen := func() string { return "fixedid" }

	t.Run("stores a validated record", func(t *testing.T) {
		repo := newMockRepo()

		link, err := smartlink.NewCreator(repo, gen).Create(context.Background(), "user-1", smartlink.Destinations{
			smartlink.PlatformSpotify: " https://open.spotify.com/show/X ",
			smartlink.PlatformApple:   "",
		})

		require.NoError(t, err)
		assert.Equal(t, smartlink.ID("fixedid"), link.ID)
		assert.Equal(t, smartlink.Destinations{smartlink.PlatformSpotify: "https://open.spotify.com/show/X"}, link.Destinations)

		stored, err := repo.Get(context.Background(), "fixedid")
		require.NoError(t, err)
		assert.Equal(t, "user-1", stored.Owner)
	})

	t.Run("requires an owner", func(t *testing.T) {
		_, err := smartlink.NewCreator(newMockRepo(), gen).Create(context.Background(), "", smartlink.Destinations{
			smartlink.PlatformSpotify: "https://open.spotify.com/show/X",
		})

		assert.ErrorIs(t, err, smartlink.ErrInvalid)
	})

	t.Run("retries with a fresh id after a collision", func(t *testing.T) {
		repo := newMockRepo(&smartlink.SmartLink{ID: "taken", Owner: "alice"})
		ids := []string{"taken", "taken", "fresh"}
		next := func() string {
			id := ids[0]
			ids = ids[1:]

			return id
		}

		link, err := smartlink.NewCreator(repo, next).Create(context.Background(), "bob", smartlink.Destinations{
			smartlink.PlatformSpotify: "https://open.spotify.com/show/B",
		})

		require.NoError(t, err)
		assert.Equal(t, smartlink.ID("fresh"), link.ID)

		original, err := repo.Get(context.Background(), "taken")
		require.NoError(t, err)
		assert.Equal(t, "alice", original.Owner)
	})

	t.Run("gives up when every id is taken", func(t *testing.T) {
		repo := newMockRepo(&smartlink.SmartLink{ID: "dup", Owner: "alice"})
		creator := smartlink.NewCreator(repo, func() string { return "dup" })

		link, err := creator.Create(context.Background(), "bob", smartlink.Destinations{
			smartlink.PlatformSpotify: "https://open.spotify.com/show/B",
		})

		assert.Nil(t, link)
		require.ErrorIs(t, err, smartlink.ErrIDTaken)

		stored, _ := repo.Get(context.Background(), "dup")
		assert.Equal(t, "alice", stored.Owner)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		repo := newMockRepo()
		repo.createErr = errors.New("db down")

		_, err := smartlink.NewCreator(repo, gen).Create(context.Background(), "user-1", smartlink.Destinations{
			smartlink.PlatformSpotify: "https://open.spotify.com/show/X",
		})

		assert.ErrorIs(t, err, repo.createErr)
	})
}

func TestValidateDestinations(t *testing.T) {
	tests := []struct {
		name string
		in   smartlink.Destinations
	}{
		{"empty", smartlink.Destinations{}},
		{"only blanks", smartlink.Destinations{smartlink.PlatformApple: "  "}},
		{"unknown platform", smartlink.Destinations{"deezer": "https://deezer.com/x"}},
		{"relative url", smartlink.Destinations{smartlink.PlatformSpotify: "/show/X"}},
		{"bad scheme", smartlink.Destinations{smartlink.PlatformSpotify: "javascript:alert(1)"}},
		{"missing host", smartlink.Destinations{smartlink.PlatformSpotify: "https://"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := smartlink.ValidateDestinations(tt.in)

			assert.ErrorIs(t, err, smartlink.ErrInvalid)
		})
	}
}
