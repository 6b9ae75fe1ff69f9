package protect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyProtectorIsInert(t *testing.T) {
	p := noopProtector{}
	assert.Equal(t, ModeLazy, p.Mode())
	// No committed memory behind these; the calls must be pure no-ops.
	p.ProtectRange(0x1000, 0x1000)
	p.UnprotectRange(0x1000, 0x1000)
	p.Close()
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "lazy", ModeLazy.String())
	assert.Equal(t, "eager", ModeEager.String())
}

func TestNewNeverFails(t *testing.T) {
	p := New(nil)
	require.NotNil(t, p)
	defer p.Close()
	assert.Contains(t, []Mode{ModeLazy, ModeEager}, p.Mode())
}
