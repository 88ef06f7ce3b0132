package kernel_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID(t *testing.T) {
	t.Run("round trips through string and bytes", func(t *testing.T) {
		id := kernel.NewUUID()

		fromString, err := kernel.UUIDFromString(id.String())
		require.NoError(t, err)
		raw := id.Bytes()
		fromBytes, err := kernel.UUIDFromBytes(raw[:])
		require.NoError(t, err)

		assert.True(t, id.IsEqual(fromString))
		assert.True(t, id.IsEqual(fromBytes))
	})

	t.Run("rejects malformed and nil values", func(t *testing.T) {
		_, err := kernel.UUIDFromString("not-a-uuid")
		require.Error(t, err)

		_, err = kernel.UUIDFromString("00000000-0000-0000-0000-000000000000")
		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)

		_, err = kernel.UUIDFromBytes([]byte{1, 2, 3})
		require.Error(t, err)
	})

	t.Run("zero value is invalid", func(t *testing.T) {
		var id kernel.UUID
		require.ErrorIs(t, id.Validate(), kernel.ErrUUIDIsNotConstructed)
	})

	t.Run("less follows string order", func(t *testing.T) {
		a, _ := kernel.UUIDFromString("00000000-0000-0000-0000-00000000000a")
		b, _ := kernel.UUIDFromString("00000000-0000-0000-0000-00000000000b")

		assert.True(t, a.Less(b))
		assert.False(t, b.Less(a))
		assert.False(t, a.Less(a))
	})

	t.Run("marshals as text", func(t *testing.T) {
		id := kernel.NewUUID()
		text, err := id.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, id.String(), string(text))
	})
}

func TestMoney(t *testing.T) {
	price, err := kernel.NewMoney(1250)
	require.NoError(t, err)

	total, err := price.Multiply(3)
	require.NoError(t, err)
	assert.Equal(t, int64(3750), total.Minor())
	assert.Equal(t, "37.50", total.String())

	_, err = kernel.NewMoney(-1)
	require.Error(t, err)

	_, err = kernel.Money(1 << 62).Multiply(4)
	require.Error(t, err)
}
