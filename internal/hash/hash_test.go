package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName64_Deterministic(t *testing.T) {
	a := Name64([]byte("user.backup.policy"))
	b := Name64([]byte("user.backup.policy"))
	assert.Equal(t, a, b)

	c := Name64([]byte("user.backup.policy2"))
	assert.NotEqual(t, a, c)
}

func TestName64_MaskClearsLowBits(t *testing.T) {
	h := Name64([]byte("security.selinux")) &^ NameHashMask
	assert.Zero(t, h&NameHashMask)

	// Masking only touches the reserved bits.
	full := Name64([]byte("security.selinux"))
	assert.Equal(t, full&^NameHashMask, h)
}

func TestCRC32C(t *testing.T) {
	// Known Castagnoli vector: "123456789" -> 0xE3069283.
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))
}
