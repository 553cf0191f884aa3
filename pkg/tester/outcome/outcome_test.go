package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassFailErr(t *testing.T) {
	p := Pass("all good")
	require.NotNil(t, p.Pass)
	assert.True(t, *p.Pass)
	assert.Equal(t, "all good", p.Info)

	f := Fail("nope")
	require.NotNil(t, f.Pass)
	assert.False(t, *f.Pass)

	e := Err("boom")
	assert.Nil(t, e.Pass)
	assert.Equal(t, "boom", e.Info)
}

func TestDisplayRequired(t *testing.T) {
	assert.Equal(t, "PASS", Pass("").Display(true))
	assert.Equal(t, "FAIL", Fail("").Display(true))
	assert.Equal(t, "UNTESTED", Err("").Display(true))
}

func TestDisplayOptional(t *testing.T) {
	assert.Equal(t, "YES", Pass("").Display(false))
	assert.Equal(t, "NO", Fail("").Display(false))
	assert.Equal(t, "UNTESTED", Err("").Display(false))
}
