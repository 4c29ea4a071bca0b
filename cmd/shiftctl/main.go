// shiftctl 运维命令行：手动巡检、重算评分、迁移与签发调试 Token
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/config"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
	"github.com/muhamed1222/timeout-sub002/internal/service"
	"github.com/muhamed1222/timeout-sub002/pkg/database"
	"github.com/muhamed1222/timeout-sub002/pkg/jwt"
	applogger "github.com/muhamed1222/timeout-sub002/pkg/logger"
	"github.com/muhamed1222/timeout-sub002/pkg/redis"
	"github.com/muhamed1222/timeout-sub002/pkg/telegram"
)

func main() {
	_ = godotenv.Load()

	root := &cli.Command{
		Name:  "shiftctl",
		Usage: "班次考勤服务运维工具",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件路径", Sources: cli.EnvVars("SHIFT_CONFIG")},
		},
		Commands: []*cli.Command{
			sweepCommand(),
			recalcCommand(),
			migrateCommand(),
			tokenCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// deps 命令执行期间共享的依赖
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	svc    *service.Service
	rdb    *redis.Client
}

func (r *deps) close() {
	if sqlDB, err := r.db.DB(); err == nil {
		sqlDB.Close()
	}
	if r.rdb != nil {
		r.rdb.Close()
	}
	r.logger.Sync()
}

func bootstrap(c *cli.Command, withServices bool) (*deps, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	rt := &deps{cfg: cfg, logger: logger, db: db}
	if !withServices {
		return rt, nil
	}

	var locker service.SweepLocker
	if rdb, err := redis.NewClient(&cfg.Redis, logger); err != nil {
		logger.Warn("Redis 不可用，使用进程内租约", zap.Error(err))
	} else {
		rt.rdb = rdb
		locker = rdb
	}

	var sender service.MessageSender
	if tg, err := telegram.NewSender(&cfg.Telegram, logger); err != nil {
		logger.Warn("Telegram 不可用，通知只落库", zap.Error(err))
	} else if tg != nil {
		sender = tg
	}

	rt.svc, err = service.NewService(cfg, repository.NewRepository(db), locker, sender, logger)
	if err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "立即执行一轮考勤巡检",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "company", Usage: "只巡检指定公司，缺省为全部公司"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := bootstrap(c, true)
			if err != nil {
				return err
			}
			defer rt.close()

			if companyID := c.String("company"); companyID != "" {
				return printJSON(rt.svc.Monitor.ProcessCompany(ctx, companyID))
			}
			return printJSON(rt.svc.Monitor.RunGlobalSweep(ctx))
		},
	}
}

func recalcCommand() *cli.Command {
	return &cli.Command{
		Name:  "recalc",
		Usage: "重算公司（或单个员工）的评分",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "company", Required: true},
			&cli.StringFlag{Name: "employee", Usage: "缺省为公司全部员工"},
			&cli.StringFlag{Name: "period-start", Usage: "YYYY-MM-DD，缺省为当前自然月"},
			&cli.StringFlag{Name: "period-end", Usage: "YYYY-MM-DD"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := bootstrap(c, true)
			if err != nil {
				return err
			}
			defer rt.close()

			period, err := rt.svc.Rating.ResolvePeriod(c.String("period-start"), c.String("period-end"))
			if err != nil {
				return err
			}

			companyID := c.String("company")
			if employeeID := c.String("employee"); employeeID != "" {
				rating, err := rt.svc.Rating.Recalculate(ctx, companyID, employeeID, period)
				if err != nil {
					return err
				}
				return printJSON(rating)
			}

			result, err := rt.svc.Rating.RecalculateCompany(ctx, companyID, period)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func migrateCommand() *cli.Command {
	run := func(fn func(rt *deps) error) cli.ActionFunc {
		return func(_ context.Context, c *cli.Command) error {
			rt, err := bootstrap(c, false)
			if err != nil {
				return err
			}
			defer rt.close()
			return fn(rt)
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "数据库迁移",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "应用全部未执行的迁移",
				Action: run(func(rt *deps) error {
					sqlDB, err := rt.db.DB()
					if err != nil {
						return err
					}
					return database.RunMigrations(sqlDB, rt.logger)
				}),
			},
			{
				Name:  "down",
				Usage: "回滚最近一次迁移",
				Action: run(func(rt *deps) error {
					sqlDB, err := rt.db.DB()
					if err != nil {
						return err
					}
					return database.RollbackMigration(sqlDB, rt.logger)
				}),
			},
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "签发调试用 Access Token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true},
			&cli.StringFlag{Name: "role", Value: jwt.RoleAdmin, Usage: "admin | manager | bot"},
			&cli.StringFlag{Name: "company", Usage: "缺省为跨公司 Token"},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}

			switch c.String("role") {
			case jwt.RoleAdmin, jwt.RoleManager, jwt.RoleBot:
			default:
				return fmt.Errorf("未知角色: %s", c.String("role"))
			}

			token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(c.String("user"), c.String("role"), c.String("company"))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}
