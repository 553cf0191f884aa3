package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedIsPreauthRegisteredStranger(t *testing.T) {
	assert.Equal(t, []Stage{Preauth, Registered, Stranger}, Ordered)
}

func TestStringNames(t *testing.T) {
	assert.Equal(t, "preauth", Preauth.String())
	assert.Equal(t, "registered", Registered.String())
	assert.Equal(t, "stranger", Stranger.String())
	assert.Equal(t, "unknown", Unknown.String())
}
