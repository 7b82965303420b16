package service

import (
	"testing"

	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanView(t *testing.T) {
	env := newTestEnv(t)
	public := env.createUser(t, "public", false)
	private := env.createUser(t, "private", true)
	follower := env.createUser(t, "follower", false)
	stranger := env.createUser(t, "stranger", false)
	env.follow(t, follower, private)

	publicItem := &model.Item{OwnerID: public}
	privateItem := &model.Item{OwnerID: private}

	cases := []struct {
		name   string
		viewer uint
		res    Resource
		want   bool
	}{
		{"anonymous public", 0, publicItem, true},
		{"anonymous private", 0, privateItem, false},
		{"owner", private, privateItem, true},
		{"follower", follower, privateItem, true},
		{"stranger", stranger, privateItem, false},
		{"comment by stranger on private item", stranger, &model.Comment{OwnerID: stranger, Item: privateItem}, true},
		{"comment viewed by follower", follower, &model.Comment{OwnerID: stranger, Item: privateItem}, true},
		{"private profile", stranger, &model.Profile{UserID: private}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := CanView(env.db, tc.viewer, tc.res)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestCanViewMissingAccount(t *testing.T) {
	env := newTestEnv(t)

	_, err := CanView(env.db, 1, &model.Item{OwnerID: 42})
	assert.True(t, apperr.IsType(err, apperr.TypeNotFound))
}
