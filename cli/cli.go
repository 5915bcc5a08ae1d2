// Package cli holds the cobra commands shared by the combined behavior
// binary and the three standalone scorers.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/interview-coach/behavior-pipeline/config"
	"github.com/interview-coach/behavior-pipeline/logger"
	"github.com/interview-coach/behavior-pipeline/orchestrator"
)

// UserError is printed to stdout verbatim, like the verdict.
type UserError struct{ Msg string }

func (e *UserError) Error() string { return e.Msg }

type options struct {
	configPath string
	locale     string
	logLevel   string
}

func (o *options) bind(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVar(&o.configPath, "config", "", "path to config.yaml (default: config/$CONFIG_ENV/config.yaml)")
	fs.StringVar(&o.locale, "locale", "", "verdict language: zh or en")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
}

func (o *options) load(cmd *cobra.Command) (*config.Root, *logrus.Logger, error) {
	conf, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.locale != "" {
		conf.Output.Locale = o.locale
	}
	if o.logLevel != "" {
		conf.Pipeline.LogLvl = o.logLevel
	}
	config.Normalize(conf)
	if err := config.Validate(conf); err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Options{
		Level: conf.Pipeline.LogLvl,
		File:  conf.Pipeline.LogFile,
		Out:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, err
	}
	return conf, log, nil
}

func notFound(locale, path string) string {
	if locale == "en" {
		return "file not found: " + path
	}
	return "文件不存在：" + path
}

func (o *options) run(cmd *cobra.Command, m orchestrator.Modality, path string) error {
	conf, log, err := o.load(cmd)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"modality": m, "input": path}).Debug("starting")

	p := orchestrator.NewPipeline(conf, orchestrator.WithLogger(log))
	res, err := p.Run(cmd.Context(), m, path)
	if errors.Is(err, orchestrator.ErrFileNotFound) {
		return &UserError{Msg: notFound(conf.Output.Locale, path)}
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Verdict)
	return nil
}

// Main executes cmd with signal cancellation and returns the exit status.
func Main(cmd *cobra.Command) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.ExecuteContext(ctx); err != nil {
		var ue *UserError
		if errors.As(err, &ue) {
			fmt.Fprintln(cmd.OutOrStdout(), ue.Msg)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		}
		return 1
	}
	return 0
}
