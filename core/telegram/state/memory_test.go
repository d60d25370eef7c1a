package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryManagerContract(t *testing.T) {
	m := NewMemoryManager()
	runManagerContract(t, m)
	assert.Equal(t, 3, m.Len())
}
