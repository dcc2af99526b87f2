package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.set/internal/game"
)

// GameManager 牌局管理
type GameManager interface {
	Launch(ctx context.Context) (*game.Game, error)
	Get(gameID string) (*game.Game, error)
	Remove(gameID string)
	Snapshots() []game.Snapshot
}

// GameHandler 牌局查询与管理
type GameHandler struct {
	manager     GameManager
	ctx         context.Context
	allowLaunch bool
}

// NewGameHandler 创建牌局处理器，新牌局的生命周期跟随 ctx
func NewGameHandler(ctx context.Context, manager GameManager, allowLaunch bool) *GameHandler {
	return &GameHandler{manager: manager, ctx: ctx, allowLaunch: allowLaunch}
}

// List 牌局列表
// GET /api/v1/games
func (h *GameHandler) List(c *gin.Context) {
	snaps := h.manager.Snapshots()
	if snaps == nil {
		snaps = []game.Snapshot{}
	}
	Success(c, snaps)
}

// Get 牌局详情
// GET /api/v1/games/:id
func (h *GameHandler) Get(c *gin.Context) {
	g, err := h.manager.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, g.GetSnapshot())
}

// Launch 新开一局
// POST /api/v1/games
func (h *GameHandler) Launch(c *gin.Context) {
	if !h.allowLaunch {
		Error(c, http.StatusForbidden, CodeLaunchBlocked)
		return
	}

	g, err := h.manager.Launch(h.ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, gin.H{"id": g.ID()})
}

// Stop 终止并移除牌局
// DELETE /api/v1/games/:id
func (h *GameHandler) Stop(c *gin.Context) {
	id := c.Param("id")
	g, err := h.manager.Get(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	snap := g.GetSnapshot()
	h.manager.Remove(id)
	Success(c, gin.H{"id": id, "scores": snap.Scores})
}

func (h *GameHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		Error(c, http.StatusNotFound, CodeGameNotFound)
	case errors.Is(err, game.ErrGameFinished):
		Error(c, http.StatusConflict, CodeGameFinished)
	default:
		Error(c, http.StatusInternalServerError, CodeServerError)
	}
}
