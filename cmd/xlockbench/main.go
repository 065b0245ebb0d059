// xlockbench 是 xkeyrw 键级读写锁的压测与不变量校验工具。
//
// 用法:
//
//	xlockbench [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   场景文件路径 (.yaml/.yml/.json)
//	--json         以 JSON 格式输出报告日志
//
// 命令:
//
//	run            执行场景：并发读写压测，校验互斥/共享/排空不变量
//	check          校验场景文件内容，不执行
//
// run 命令说明:
//
//	场景参数优先级：命令行 flag > 场景文件 > 内置默认值。
//	校验内容：写独占（任一时刻每 key 至多一个写者且无读者）、
//	读共享（读持有期间无写者）、结束后两张表排空（泄漏检查）。
//
// 退出码:
//
//	0: 执行成功且不变量全部成立
//	1: 检测到不变量违例或排空失败
//	2: 参数/场景配置错误
//
// 示例:
//
//	xlockbench run                                  # 内置默认场景
//	xlockbench -c scenario.yaml run                 # 从文件加载场景
//	xlockbench run --keys 32 --writers 4            # flag 覆盖
//	xlockbench -c scenario.json check               # 只校验不执行
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// exitError 表示需要非零退出码但已完成输出的场景。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 表示参数/场景配置错误，退出码 2。
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xlockbench",
		Usage:   "键级读写锁压测与不变量校验工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "场景文件路径 (.yaml/.yml/.json)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "以 JSON 格式输出报告日志",
			},
		},
		Commands: []*cli.Command{
			createRunCommand(),
			createCheckCommand(),
		},
		DefaultCommand: "help",
		Authors: []any{
			"XLock Team",
		},
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 run() 统一处理退出码映射，确保与文档退出码契约一致。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

// createRunCommand 创建 run 子命令。
func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "执行场景并校验不变量",
		Flags: scenarioFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sc, err := scenarioFromCmd(cmd)
			if err != nil {
				return &usageError{err: err}
			}
			logger := newLogger(cmd.Bool("json"))

			report, err := runScenario(ctx, sc)
			if err != nil {
				return err
			}

			logger.Info("scenario finished",
				slog.String("run_id", report.RunID),
				slog.Duration("elapsed", report.Elapsed),
				slog.Int64("reads", report.Reads),
				slog.Int64("writes", report.Writes),
				slog.Int64("violations", report.Violations),
				slog.Bool("drained", report.Drained),
				slog.Int("residual_read_keys", report.Stats.ReadKeys),
				slog.Int("residual_write_keys", report.Stats.WriteKeys),
			)
			if !report.ok() {
				logger.Error("invariant violation detected",
					slog.String("run_id", report.RunID),
					slog.Int64("violations", report.Violations),
					slog.Bool("drained", report.Drained),
				)
				return &exitError{code: 1}
			}
			return nil
		},
	}
}

// createCheckCommand 创建 check 子命令。
func createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "校验场景文件内容，不执行",
		Flags: scenarioFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			sc, err := scenarioFromCmd(cmd)
			if err != nil {
				return &usageError{err: err}
			}
			logger := newLogger(cmd.Bool("json"))
			logger.Info("scenario ok",
				slog.Int("keys", sc.Keys),
				slog.Int("readers", sc.Readers),
				slog.Int("writers", sc.Writers),
				slog.Int("iterations", sc.Iterations),
				slog.Duration("hold_time", sc.HoldTime),
				slog.Duration("timeout", sc.Timeout),
			)
			return nil
		},
	}
}

// newLogger 创建报告输出用的 logger。
func newLogger(jsonFormat bool) *slog.Logger {
	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	} else {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	return slog.New(handler)
}

func run() int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Run(ctx, os.Args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}

	return 0
}
