// Package terminal 终端界面：牌桌显示和键盘输入
package terminal

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/nsf/termbox-go"

	"sudooom.set/internal/game"
)

const (
	columns   = 4
	cellWidth = 18
	cellRows  = 4
)

var playerColors = []termbox.Attribute{
	termbox.ColorCyan, termbox.ColorYellow, termbox.ColorGreen, termbox.ColorMagenta,
	termbox.ColorBlue, termbox.ColorRed, termbox.ColorWhite,
}

// FeatureView 把牌拆成特征，用于绘制
type FeatureView interface {
	CardToFeatures(card game.Card) []int
}

// Screen 终端牌桌
// 保存完整画面状态，每个事件后整屏重绘；termbox 调用都在 mu 内
type Screen struct {
	mu sync.Mutex

	features FeatureView
	names    []string
	keys     []string

	cards     []int
	tokens    [][]int
	countdown time.Duration
	warn      bool
	freezes   []time.Duration
	scores    []int
	winners   []int

	logger *slog.Logger
}

var _ game.Display = (*Screen)(nil)

// Open 初始化终端
func Open(features FeatureView, tableSize int, names, keys []string) (*Screen, error) {
	if err := termbox.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	termbox.SetInputMode(termbox.InputEsc)

	s := &Screen{
		features: features,
		names:    names,
		keys:     keys,
		cards:    make([]int, tableSize),
		tokens:   make([][]int, tableSize),
		freezes:  make([]time.Duration, len(names)),
		scores:   make([]int, len(names)),
		logger:   slog.Default().With("component", "Terminal"),
	}
	for i := range s.cards {
		s.cards[i] = -1
	}

	s.mu.Lock()
	s.render()
	s.mu.Unlock()
	return s, nil
}

// Close 恢复终端
func (s *Screen) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	termbox.Close()
}

func (s *Screen) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.render()
}

func (s *Screen) PlaceCard(card game.Card, slot int) {
	s.update(func() { s.cards[slot] = int(card) })
}

func (s *Screen) RemoveCard(slot int) {
	s.update(func() { s.cards[slot] = -1 })
}

func (s *Screen) PlaceToken(player, slot int) {
	s.update(func() { s.tokens[slot] = append(s.tokens[slot], player) })
}

func (s *Screen) RemoveToken(player, slot int) {
	s.update(func() {
		s.tokens[slot] = slices.DeleteFunc(s.tokens[slot], func(p int) bool { return p == player })
	})
}

func (s *Screen) RemoveTokens(slot int) {
	s.update(func() { s.tokens[slot] = nil })
}

func (s *Screen) RemoveAllTokens() {
	s.update(func() {
		for i := range s.tokens {
			s.tokens[i] = nil
		}
	})
}

func (s *Screen) SetCountdown(remaining time.Duration, warn bool) {
	s.update(func() {
		s.countdown = remaining
		s.warn = warn
	})
}

func (s *Screen) SetFreeze(player int, remaining time.Duration) {
	s.update(func() {
		if player >= 0 && player < len(s.freezes) {
			s.freezes[player] = remaining
		}
	})
}

func (s *Screen) SetScore(player, score int) {
	s.update(func() {
		if player >= 0 && player < len(s.scores) {
			s.scores[player] = score
		}
	})
}

func (s *Screen) AnnounceWinners(players []int) {
	s.update(func() { s.winners = slices.Clone(players) })
}

// ========== 绘制 ==========

func (s *Screen) render() {
	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		s.logger.Warn("Failed to clear terminal", "error", err)
		return
	}

	y := 0
	fg := termbox.ColorDefault
	if s.warn {
		fg = termbox.ColorRed | termbox.AttrBold
	}
	printAt(0, y, fg, fmt.Sprintf("Reshuffle in %4.1fs", s.countdown.Seconds()))
	y += 2

	for slot := range s.cards {
		col, row := slot%columns, slot/columns
		s.renderSlot(col*cellWidth, y+row*cellRows, slot)
	}
	y += (len(s.cards)+columns-1)/columns*cellRows + 1

	for id, name := range s.names {
		line := fmt.Sprintf("%-12s score %3d", name, s.scores[id])
		if id < len(s.keys) {
			line += "  keys " + s.keys[id]
		}
		if f := s.freezes[id]; f > 0 {
			line += fmt.Sprintf("  frozen %.1fs", f.Seconds())
		}
		printAt(0, y, playerColors[id%len(playerColors)], line)
		y++
	}

	if s.winners != nil {
		y++
		var names []string
		for _, w := range s.winners {
			names = append(names, s.names[w])
		}
		printAt(0, y, termbox.ColorGreen|termbox.AttrBold, fmt.Sprintf("Winner(s): %v", names))
	}
	printAt(0, y+2, termbox.ColorDefault, "ESC to quit")

	if err := termbox.Flush(); err != nil {
		s.logger.Warn("Failed to flush terminal", "error", err)
	}
}

func (s *Screen) renderSlot(x, y, slot int) {
	label := fmt.Sprintf("[%2d]", slot)
	for p := range s.keys {
		if keys := []rune(s.keys[p]); slot < len(keys) {
			label += " " + string(keys[slot])
		}
	}
	printAt(x, y, termbox.ColorDefault, label)

	if c := s.cards[slot]; c >= 0 {
		text, fg := s.cardFace(game.Card(c))
		printAt(x, y+1, fg, text)
	} else {
		printAt(x, y+1, termbox.ColorDefault, "  --")
	}

	for i, p := range s.tokens[slot] {
		termbox.SetCell(x+2+i*2, y+2, '*', playerColors[p%len(playerColors)]|termbox.AttrBold, termbox.ColorDefault)
	}
}

var (
	cardColors = []termbox.Attribute{termbox.ColorRed, termbox.ColorGreen, termbox.ColorMagenta}
	cardShapes = [][]rune{{'◇', '◈', '◆'}, {'○', '◎', '●'}, {'□', '▣', '■'}}
)

// cardFace 3x4 特征：颜色、数量、形状、填充；其他规格显示特征值
func (s *Screen) cardFace(card game.Card) (string, termbox.Attribute) {
	if s.features == nil {
		return fmt.Sprintf("  #%d", card), termbox.ColorDefault
	}
	f := s.features.CardToFeatures(card)
	if len(f) != 4 || slices.Max(f) > 2 {
		return fmt.Sprintf("  %v", f), termbox.ColorDefault
	}

	shape := cardShapes[f[2]][f[3]]
	text := "  "
	for i := 0; i <= f[1]; i++ {
		text += string(shape) + " "
	}
	return text, cardColors[f[0]]
}

func printAt(x, y int, fg termbox.Attribute, text string) {
	for _, r := range text {
		termbox.SetCell(x, y, r, fg, termbox.ColorDefault)
		x++
	}
}
