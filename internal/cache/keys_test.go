package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "post:data:42", PostKey(42))
	assert.Equal(t, "workspace:7:posts", WorkspacePostsKey(7))
	assert.Equal(t, "workspace:7:accounts", WorkspaceAccountsKey(7))
}

func TestPostKeysBundle(t *testing.T) {
	keys := PostKeys(42, 7)
	assert.Contains(t, keys, PostKey(42))
	assert.Contains(t, keys, WorkspacePostsKey(7))
}
