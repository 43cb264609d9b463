package testfixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDGenerator(t *testing.T) {
	gen := NewIDGenerator("")
	assert.Equal(t, "id-1", gen.Next())
	assert.Equal(t, "id-2", gen.NextFunc()())

	blk := NewIDGenerator("blk")
	assert.Equal(t, "blk-1", blk.Next())

	var nilGen *IDGenerator
	assert.Equal(t, "", nilGen.NextFunc()())
}
