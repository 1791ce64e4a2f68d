package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	assert.Equal(t, "pending", Name(Pending))
	assert.Equal(t, "processing", Name(Processing))
	assert.Equal(t, "completed", Name(Completed))
	assert.Equal(t, "failed", Name(Failed))
	assert.Equal(t, "", Name(Status(0)))
}

func TestFrom(t *testing.T) {
	assert.Equal(t, Pending, From("pending"))
	assert.Equal(t, Processing, From("processing"))
	assert.Equal(t, Completed, From("completed"))
	assert.Equal(t, Failed, From("failed"))
	assert.Equal(t, Status(0), From("olia"))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(Pending))
	assert.False(t, IsTerminal(Processing))
	assert.True(t, IsTerminal(Completed))
	assert.True(t, IsTerminal(Failed))
}
