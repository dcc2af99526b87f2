package terminal

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nsf/termbox-go"

	"sudooom.set/internal/game"
)

// ErrQuit 用户按了 ESC 或 Ctrl-C
var ErrQuit = errors.New("terminal: quit")

type binding struct {
	player int
	slot   int
}

// Keyboard 把按键映射为 (玩家, 槽位)
// keys[i] 的第 j 个字符对应人类玩家 i 的槽位 j
type Keyboard struct {
	bindings map[rune]binding
	logger   *slog.Logger
}

var _ game.InputSource = (*Keyboard)(nil)

// NewKeyboard 创建键盘输入，重复的按键以先出现的为准
func NewKeyboard(keys []string) *Keyboard {
	k := &Keyboard{
		bindings: make(map[rune]binding),
		logger:   slog.Default().With("component", "Keyboard"),
	}
	for player, row := range keys {
		for slot, r := range []rune(row) {
			if _, dup := k.bindings[r]; dup {
				k.logger.Warn("Duplicate key binding ignored", "key", string(r), "playerId", player, "slot", slot)
				continue
			}
			k.bindings[r] = binding{player: player, slot: slot}
		}
	}
	return k
}

// Lookup 查找按键对应的玩家和槽位
func (k *Keyboard) Lookup(r rune) (player, slot int, ok bool) {
	b, ok := k.bindings[r]
	return b.player, b.slot, ok
}

// Run 读取键盘直到 ctx 取消或用户退出
func (k *Keyboard) Run(ctx context.Context, presser game.KeyPresser) error {
	stop := context.AfterFunc(ctx, termbox.Interrupt)
	defer stop()

	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventInterrupt:
			return ctx.Err()
		case termbox.EventError:
			return ev.Err
		case termbox.EventKey:
			if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC {
				return ErrQuit
			}
			if ev.Ch == 0 {
				continue
			}
			if player, slot, ok := k.Lookup(ev.Ch); ok {
				presser.KeyPressed(player, slot)
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
