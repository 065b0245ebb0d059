package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"
)

var (
	errUnsupportedFormat = errors.New("xlockbench: unsupported scenario format")
	errInvalidScenario   = errors.New("xlockbench: invalid scenario")
)

// Scenario 描述一次压测场景。
// 每个 key 启动 Readers 个读 worker 和 Writers 个写 worker，
// 各执行 Iterations 次获取-持有-释放。
type Scenario struct {
	// Keys 独立 key 的数量。
	Keys int `koanf:"keys"`
	// Readers 每 key 的读 worker 数。
	Readers int `koanf:"readers"`
	// Writers 每 key 的写 worker 数。
	Writers int `koanf:"writers"`
	// Iterations 每 worker 的迭代次数。
	Iterations int `koanf:"iterations"`
	// HoldTime 每次获取后的持有时长，0 表示立即释放。
	HoldTime time.Duration `koanf:"hold_time"`
	// ShardCount 锁分片数，0 表示使用 xkeyrw 默认值。
	ShardCount int `koanf:"shard_count"`
	// MaxKeys 在途条目上限，0 表示不限制。
	MaxKeys int `koanf:"max_keys"`
	// Timeout 场景整体超时。
	Timeout time.Duration `koanf:"timeout"`
}

func defaultScenario() Scenario {
	return Scenario{
		Keys:       8,
		Readers:    4,
		Writers:    2,
		Iterations: 200,
		Timeout:    time.Minute,
	}
}

// loadScenario 从文件加载场景，按扩展名检测格式。
// path 为空时返回内置默认场景。
func loadScenario(path string) (Scenario, error) {
	sc := defaultScenario()
	if path == "" {
		return sc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("xlockbench: read scenario failed: %w", err)
	}

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = kyaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		return sc, fmt.Errorf("%w: %s", errUnsupportedFormat, path)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return sc, fmt.Errorf("xlockbench: parse scenario failed: %w", err)
	}
	if err := k.UnmarshalWithConf("", &sc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return sc, fmt.Errorf("xlockbench: unmarshal scenario failed: %w", err)
	}
	return sc, nil
}

func (s Scenario) validate() error {
	if s.Keys < 1 {
		return fmt.Errorf("%w: keys must be >= 1, got %d", errInvalidScenario, s.Keys)
	}
	if s.Readers < 0 || s.Writers < 0 {
		return fmt.Errorf("%w: readers/writers must be >= 0", errInvalidScenario)
	}
	if s.Readers+s.Writers < 1 {
		return fmt.Errorf("%w: need at least one worker", errInvalidScenario)
	}
	if s.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be >= 1, got %d", errInvalidScenario, s.Iterations)
	}
	if s.HoldTime < 0 {
		return fmt.Errorf("%w: hold_time must be >= 0", errInvalidScenario)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be > 0", errInvalidScenario)
	}
	return nil
}

// scenarioFlags 返回 run/check 共用的场景覆盖 flag。
func scenarioFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "keys", Usage: "独立 key 数量"},
		&cli.IntFlag{Name: "readers", Usage: "每 key 读 worker 数"},
		&cli.IntFlag{Name: "writers", Usage: "每 key 写 worker 数"},
		&cli.IntFlag{Name: "iterations", Usage: "每 worker 迭代次数"},
		&cli.DurationFlag{Name: "hold", Usage: "每次获取后的持有时长"},
		&cli.IntFlag{Name: "shards", Usage: "锁分片数（2 的幂）"},
		&cli.IntFlag{Name: "max-keys", Usage: "在途条目上限，0 表示不限制"},
		&cli.DurationFlag{Name: "timeout", Usage: "场景整体超时"},
	}
}

// scenarioFromCmd 按"flag > 文件 > 默认值"的优先级组装场景。
func scenarioFromCmd(cmd *cli.Command) (Scenario, error) {
	sc, err := loadScenario(cmd.String("config"))
	if err != nil {
		return sc, err
	}

	if cmd.IsSet("keys") {
		sc.Keys = cmd.Int("keys")
	}
	if cmd.IsSet("readers") {
		sc.Readers = cmd.Int("readers")
	}
	if cmd.IsSet("writers") {
		sc.Writers = cmd.Int("writers")
	}
	if cmd.IsSet("iterations") {
		sc.Iterations = cmd.Int("iterations")
	}
	if cmd.IsSet("hold") {
		sc.HoldTime = cmd.Duration("hold")
	}
	if cmd.IsSet("shards") {
		sc.ShardCount = cmd.Int("shards")
	}
	if cmd.IsSet("max-keys") {
		sc.MaxKeys = cmd.Int("max-keys")
	}
	if cmd.IsSet("timeout") {
		sc.Timeout = cmd.Duration("timeout")
	}

	if err := sc.validate(); err != nil {
		return sc, err
	}
	return sc, nil
}
