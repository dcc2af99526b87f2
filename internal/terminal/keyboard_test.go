package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyboardLookup(t *testing.T) {
	k := NewKeyboard([]string{"qwerasdfzxcv", "uiopjkl;m,./"})

	tests := []struct {
		key    rune
		player int
		slot   int
	}{
		{'q', 0, 0},
		{'v', 0, 11},
		{'u', 1, 0},
		{';', 1, 7},
		{'/', 1, 11},
	}
	for _, tt := range tests {
		player, slot, ok := k.Lookup(tt.key)
		assert.True(t, ok, "按键 %q 应有映射", tt.key)
		assert.Equal(t, tt.player, player)
		assert.Equal(t, tt.slot, slot)
	}

	_, _, ok := k.Lookup('1')
	assert.False(t, ok)
}

func TestKeyboardDuplicate(t *testing.T) {
	k := NewKeyboard([]string{"ab", "ba"})

	player, slot, ok := k.Lookup('b')
	assert.True(t, ok)
	assert.Equal(t, 0, player, "重复按键归先出现的玩家")
	assert.Equal(t, 1, slot)
}
