package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommentAudienceFollowsItem(t *testing.T) {
	reply := uint(3)
	c := &Comment{OwnerID: 7, ReplyID: &reply}
	assert.Equal(t, uint(0), c.AudienceAccountID())
	assert.False(t, c.IsTopLevel())

	c.Item = &Item{OwnerID: 9}
	assert.Equal(t, uint(9), c.AudienceAccountID())
	assert.Equal(t, uint(7), c.ResourceOwnerID())
}

func TestESProfileIndexName(t *testing.T) {
	assert.Equal(t, "gram_profiles", (&ESProfile{}).ESIndexName())
	assert.Equal(t, "custom", NewESProfile("custom").ESIndexName())
	assert.Equal(t, "12", (&ESProfile{ID: 12}).DocumentID())
}
