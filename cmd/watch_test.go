package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCounts(t *testing.T) {
	assert.Equal(t, "none", formatCounts(nil))
	assert.Equal(t, "demo:run:new=1, movement:new=3, obstacle:new=2", formatCounts(map[string]int64{
		"obstacle:new": 2,
		"movement:new": 3,
		"demo:run:new": 1,
	}))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"movement:new", "obstacle:new"}, splitList(" movement:new, ,obstacle:new "))
	assert.Nil(t, splitList(""))
}
