// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pdfrst/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by convert subcommand
	NoDirs    bool
	Overwrite bool
	Split     bool
	NoImages  bool

	start         time.Time
	restoreStdLog func()
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// SplitOutput reports if document should be written as a set of files,
// command line overrides configuration.
func (e *LocalEnv) SplitOutput() bool {
	return e.Split || (e.Cfg != nil && e.Cfg.Output.Split.Enable)
}

// ExportImages reports if embedded images should be saved next to output.
func (e *LocalEnv) ExportImages() bool {
	return !e.NoImages && e.Cfg != nil && e.Cfg.Document.Images.Export
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
