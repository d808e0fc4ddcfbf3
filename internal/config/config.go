package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 環境変数名です。
const (
	EnvAppEnv           = "APP_ENV"
	EnvDropIntervalMS   = "TETRIS_DROP_INTERVAL_MS"
	EnvTickIntervalMS   = "TETRIS_TICK_INTERVAL_MS"
	EnvSeed             = "TETRIS_SEED"
	EnvRandomizer       = "TETRIS_RANDOMIZER"
	EnvAutoplayDuration = "AUTOPLAY_MAX_DURATION_SEC"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	DropInterval    time.Duration // 自動落下の間隔
	TickInterval    time.Duration // セッションマネージャーのタイマー間隔
	Seed            int64         // 乱数シード（0なら現在時刻）
	Randomizer      string        // "uniform" または "bag"
	AutoplayMaxTime time.Duration // autoplay の最大実行時間
}

// Default はデフォルト設定を返します。
func Default() Config {
	return Config{
		DropInterval:    1000 * time.Millisecond,
		TickInterval:    16 * time.Millisecond,
		Seed:            0,
		Randomizer:      "uniform",
		AutoplayMaxTime: 120 * time.Second,
	}
}

// Load は環境変数から設定を読み込みます。
// APP_ENV が production 以外の場合は先に .env を読み込みます（ファイルがなくても警告のみ）。
func Load() (Config, error) {
	if os.Getenv(EnvAppEnv) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("[Config] warning: Error loading .env file (this is fine in production): %v", err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup は lookup 関数から設定を組み立てます。未設定や空文字の変数はデフォルト値になります。
//
// Parameters:
//   lookup : os.LookupEnv と同じ形の関数
// Returns:
//   Config: 読み込んだ設定
//   error : 値が不正な場合（変数名を含む）
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvDropIntervalMS); ok {
		d, err := positiveMillis(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvDropIntervalMS, err)
		}
		cfg.DropInterval = d
	}
	if v, ok := get(EnvTickIntervalMS); ok {
		d, err := positiveMillis(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvTickIntervalMS, err)
		}
		cfg.TickInterval = d
	}
	if v, ok := get(EnvSeed); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}
		cfg.Seed = seed
	}
	if v, ok := get(EnvRandomizer); ok {
		v = strings.ToLower(v)
		if v != "uniform" && v != "bag" {
			return Config{}, fmt.Errorf("invalid %s: %q (expected uniform or bag)", EnvRandomizer, v)
		}
		cfg.Randomizer = v
	}
	if v, ok := get(EnvAutoplayDuration); ok {
		sec, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvAutoplayDuration, err)
		}
		if sec <= 0 {
			return Config{}, fmt.Errorf("invalid %s: must be positive, got %d", EnvAutoplayDuration, sec)
		}
		cfg.AutoplayMaxTime = time.Duration(sec) * time.Second
	}
	return cfg, nil
}

func positiveMillis(v string) (time.Duration, error) {
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if ms <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
