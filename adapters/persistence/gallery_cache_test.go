package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageKey(t *testing.T) {
	assert.Equal(t, "videos:gallery:v0:30:0", pageKey(0, 30, 0))
	assert.NotEqual(t, pageKey(1, 30, 0), pageKey(2, 30, 0))
	assert.NotEqual(t, pageKey(1, 30, 0), pageKey(1, 30, 30))
}
