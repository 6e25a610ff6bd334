// Package cli 本地命令行工具 resumectl：抽取、评分、导入SQLite和候选人管理
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/extractor"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/processor"
	"resume-analyzer-go/internal/storage"
)

// globalOptions 所有子命令共用的参数
type globalOptions struct {
	configPath string
	dbPath     string
	verbose    bool

	cfg *config.Config
}

// NewRootCommand 每次调用返回一棵新的命令树
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "resumectl",
		Short:         "Resume extraction and candidate management",
		Long:          `Extracts contact details, education, skills and experience from resumes, scores them and keeps a local candidate database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides sqlite.path)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newExtractCmd(opts),
		newScoreCmd(opts),
		newImportCmd(opts),
		newSearchCmd(opts),
		newShortlistCmd(opts),
		newStatsCmd(opts),
	)
	return root
}

// Execute 入口
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetOut(os.Stdout)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	if o.dbPath != "" {
		cfg.SQLite.Path = o.dbPath
	}

	// 日志写stderr，stdout只留给结果
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger.InitWithWriter(logger.Config{Level: level, Format: "pretty", TimeFormat: "15:04:05"}, cmd.ErrOrStderr())

	o.cfg = cfg
	return nil
}

func (o *globalOptions) newExtractor(scheme string) (*extractor.Extractor, error) {
	ec := o.cfg.Extractor
	if scheme != "" {
		ec.ScoringScheme = scheme
	}
	return extractor.NewFromConfig(ec)
}

// openStore 打开本地候选人库
func (o *globalOptions) openStore() (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(o.cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("打开候选人库失败: %w", err)
	}
	return store, nil
}

// openService 组装本地ResumeService，publish为true时把 resume.parsed 发到RabbitMQ
func (o *globalOptions) openService(ctx context.Context, publish bool) (*processor.ResumeService, func(), error) {
	ext, err := o.newExtractor("")
	if err != nil {
		return nil, nil, err
	}
	provider, err := parser.NewFromConfig(ctx, o.cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := o.openStore()
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { _ = store.Close() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	svcOpts := []processor.Option{
		processor.WithTextProvider(provider),
		processor.WithMaxFileSize(o.cfg.MaxPDFSizeBytes()),
		processor.WithEvents(o.cfg.RabbitMQ),
	}
	if publish {
		if o.cfg.RabbitMQ.URL == "" {
			cleanup()
			return nil, nil, fmt.Errorf("--publish 需要配置 rabbitmq.url")
		}
		mq, err := storage.NewRabbitMQ(&o.cfg.RabbitMQ)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = mq.Close() })
		if err := mq.EnsureExchange(o.cfg.RabbitMQ.ResumeEventsExchange, "direct", true); err != nil {
			cleanup()
			return nil, nil, err
		}
		svcOpts = append(svcOpts, processor.WithPublisher(mq))
	}

	svc, err := processor.NewResumeService(ext, store, svcOpts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}
