package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"sudooom.set/internal/api"
	"sudooom.set/internal/config"
	"sudooom.set/internal/display"
	"sudooom.set/internal/game"
	"sudooom.set/internal/game/oracle"
	"sudooom.set/internal/health"
	setNats "sudooom.set/internal/nats"
	setRedis "sudooom.set/internal/redis"
	"sudooom.set/internal/snowflake"
	"sudooom.set/internal/terminal"
)

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "config file path")
	pflag.Parse()

	// .env 中的 SET_* 变量覆盖配置文件
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	terminalMode := cfg.UI.Mode == "terminal"

	// 初始化日志，终端模式下写文件
	logger, logFile, err := newLogger(cfg.App, terminalMode)
	if err != nil {
		slog.Error("Failed to open log file", "error", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	slog.SetDefault(logger)

	node, err := snowflake.NewNode(cfg.App.NodeID)
	if err != nil {
		logger.Error("Failed to create id generator", "error", err)
		os.Exit(1)
	}

	// 创建上下文，收到信号即取消
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 连接 NATS（可选）
	var natsClient *setNats.Client
	if cfg.NATS.Enabled {
		natsClient, err = setNats.NewClient(cfg.NATS, cfg.App.Name)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
	}

	// 连接 Redis（可选）
	var redisClient *setRedis.Client
	if cfg.Redis.Enabled {
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		redisClient, err = setRedis.NewClient(connectCtx, cfg.Redis)
		connectCancel()
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	rules := oracle.New(cfg.Game.FeatureSize, cfg.Game.FeatureCount)

	names := make([]string, cfg.Game.Players())
	for i := range names {
		names[i] = cfg.Game.PlayerName(i)
	}

	var screen *terminal.Screen
	if terminalMode {
		screen, err = terminal.Open(rules, cfg.Game.TableSize, names, cfg.UI.Keys[:cfg.Game.HumanPlayers])
		if err != nil {
			logger.Error("Failed to open terminal", "error", err)
			os.Exit(1)
		}
	}

	// 每局一条显示链：日志/终端 + NATS + Redis，经 Dispatcher 异步转发
	newEnv := func(gameID string) *game.Env {
		sinks := []game.Display{}
		if screen != nil {
			sinks = append(sinks, screen)
		} else {
			sinks = append(sinks, display.NewLogDisplay(gameID))
		}
		if natsClient != nil {
			sinks = append(sinks, setNats.NewEventPublisher(natsClient.Conn(), gameID))
		}
		if redisClient != nil {
			board := setRedis.NewScoreBoard(redisClient, gameID, cfg.Redis.TTL)
			if err := board.Register(ctx, names); err != nil {
				logger.Warn("Failed to register scoreboard", "gameId", gameID, "error", err)
			}
			sinks = append(sinks, board)
		}

		d := display.NewDispatcher(display.NewMulti(sinks...), cfg.UI.QueueSize)
		return game.NewEnv(gameID, cfg.Game, d, rules)
	}

	manager := game.NewManager(cfg.Game, func() string { return node.Generate().String() }, newEnv)

	// 启动健康检查与牌局状态 HTTP 服务，终端模式下不允许新开牌局
	var apiServer *http.Server
	if cfg.Health.Addr != "" {
		checker := newHealthChecker(natsClient, redisClient, manager)
		router := api.SetupRouter(cfg.Health.Mode, checker, api.NewGameHandler(ctx, manager, !terminalMode))
		apiServer = startAPIServer(cfg.Health.Addr, router, logger)
	}

	// 启动牌局
	games := make([]*game.Game, 0, cfg.Game.Tables)
	for i := 0; i < cfg.Game.Tables; i++ {
		g, err := manager.Launch(ctx)
		if err != nil {
			if screen != nil {
				screen.Close()
			}
			logger.Error("Failed to launch game", "error", err)
			os.Exit(1)
		}
		games = append(games, g)
	}

	// 键盘输入
	if screen != nil {
		keyboard := terminal.NewKeyboard(cfg.UI.Keys[:cfg.Game.HumanPlayers])
		go func() {
			err := keyboard.Run(ctx, games[0])
			if errors.Is(err, terminal.ErrQuit) {
				logger.Info("Quit requested from keyboard")
			} else if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Keyboard input failed", "error", err)
			}
			cancel()
		}()
	}

	logger.Info("Set dealer started", "name", cfg.App.Name, "tables", cfg.Game.Tables, "players", cfg.Game.Players())

	// 所有牌局自然结束或收到退出信号
	select {
	case <-waitIdle(ctx, manager):
		logger.Info("All games finished")
	case <-ctx.Done():
		logger.Info("Shutting down...")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Games did not stop in time", "error", err)
	}

	if screen != nil {
		screen.Close()
	}
	if apiServer != nil {
		apiServer.Shutdown(shutdownCtx)
	}

	for _, snap := range manager.Snapshots() {
		logger.Info("Final result", "gameId", snap.ID, "scores", snap.Scores, "winners", snap.Winners)
	}
	logger.Info("Set dealer stopped")
}

// newLogger 按配置创建 JSON 或文本日志
func newLogger(cfg config.AppConfig, toFile bool) (*slog.Logger, *os.File, error) {
	var (
		out  io.Writer = os.Stdout
		file *os.File
	)
	if toFile {
		if cfg.LogFile == "" {
			out = io.Discard
		} else {
			f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, nil, fmt.Errorf("open %s: %w", cfg.LogFile, err)
			}
			out, file = f, f
		}
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler).With("app", cfg.Name), file, nil
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// newHealthChecker 未启用的依赖以 nil 接口传入
func newHealthChecker(nc *setNats.Client, rc *setRedis.Client, games health.GameCounter) *health.Checker {
	var (
		natsConn  health.NATSConn
		redisPing health.RedisPinger
	)
	if nc != nil {
		natsConn = nc
	}
	if rc != nil {
		redisPing = rc
	}
	return health.NewChecker(natsConn, redisPing, games)
}

// startAPIServer 启动健康检查与牌局状态 HTTP 服务
func startAPIServer(addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		logger.Info("API server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("API server failed", "error", err)
		}
	}()
	return server
}

// waitIdle 没有进行中的牌局时关闭
func waitIdle(ctx context.Context, m *game.Manager) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if m.Running() == 0 {
					return
				}
			}
		}
	}()
	return done
}
