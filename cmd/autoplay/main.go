package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/BLOCKFALL-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/BLOCKFALL-backend/internal/services/tetris"
)

// botActions はボットがランダムに選ぶ操作です。
var botActions = []string{
	tetris.ActionMoveLeft,
	tetris.ActionMoveRight,
	tetris.ActionRotate,
	tetris.ActionSoftDrop,
	tetris.ActionSoftDrop,
	tetris.ActionHardDrop,
}

const botInterval = 120 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Autoplay] Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.AutoplayMaxTime)
	defer cancel()

	sm := tetris.NewSessionManager(tetris.ManagerOptions{
		TickInterval: cfg.TickInterval,
		DropInterval: cfg.DropInterval,
		NewGenerator: func() tetris.PieceGenerator {
			gen, err := tetris.NewGenerator(cfg.Randomizer, cfg.Seed)
			if err != nil {
				log.Printf("[Autoplay] %v, falling back to uniform", err)
				return tetris.NewUniformGenerator(cfg.Seed)
			}
			return gen
		},
	})
	defer sm.Shutdown()

	final, err := run(ctx, sm, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		log.Fatalf("[Autoplay] %v", err)
	}
	log.Printf("[Autoplay] Finished: state=%s score=%d lines=%d", final.State, final.Score, final.LinesCleared)
}

// run は1セッションを開始し、ゲームオーバーかコンテキスト終了までランダムに操作します。
func run(ctx context.Context, sm *tetris.SessionManager, rng *rand.Rand) (tetris.Snapshot, error) {
	id, err := sm.CreateSession(ctx)
	if err != nil {
		return tetris.Snapshot{}, err
	}
	updates, err := sm.Subscribe(ctx, id)
	if err != nil {
		return tetris.Snapshot{}, err
	}
	if _, err := sm.Apply(ctx, id, tetris.ActionStart); err != nil {
		return tetris.Snapshot{}, err
	}

	ticker := time.NewTicker(botInterval)
	defer ticker.Stop()

	var last tetris.Snapshot
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return last, nil
			}
			last = snap
			if snap.State == tetris.StateGameOver {
				return last, nil
			}

		case <-ticker.C:
			action := botActions[rng.Intn(len(botActions))]
			if err := sm.Submit(ctx, tetris.PlayerInputEvent{SessionID: id, Action: action}); err != nil {
				return last, err
			}

		case <-ctx.Done():
			// 最新の状態を取り直す（Shutdown 前なので取得できる）
			snap, err := sm.Snapshot(context.Background(), id)
			if err == nil {
				last = snap
			}
			return last, ctx.Err()
		}
	}
}
