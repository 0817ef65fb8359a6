package catalog

import (
	"fmt"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/iambrandonn/dailyorch/internal/account"
	"github.com/iambrandonn/dailyorch/internal/config"
)

// GateEnv is the environment inclusion gates are evaluated against. Gates
// are expr conditions such as `!Complete(6) && TodayAvailable("buy:gold")`.
type GateEnv struct {
	Settings config.Resolved

	snap *account.Snapshot
	now  time.Time
}

// Complete reports whether daily task id is already claimed
func (e GateEnv) Complete(id int) bool {
	return e.snap != nil && e.snap.IsComplete(id)
}

// TodayAvailable reports whether the once-per-day key has not run today
func (e GateEnv) TodayAvailable(key string) bool {
	if e.snap == nil {
		return true
	}
	return e.snap.TodayAvailable(e.now, key)
}

// CompileGate compiles a gate condition against GateEnv
func CompileGate(src string) (*vm.Program, error) {
	prog, err := expr.Compile(src, expr.Env(GateEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile gate %q: %w", src, err)
	}
	return prog, nil
}

type compiledFeature struct {
	feature
	program *vm.Program
}

var compileFeatures = sync.OnceValues(func() ([]compiledFeature, error) {
	out := make([]compiledFeature, 0, len(features))
	for _, f := range features {
		cf := compiledFeature{feature: f}
		if f.gate != "" {
			prog, err := CompileGate(f.gate)
			if err != nil {
				return nil, fmt.Errorf("feature %q: %w", f.name, err)
			}
			cf.program = prog
		}
		out = append(out, cf)
	}
	return out, nil
})

func (f compiledFeature) included(env GateEnv) (bool, error) {
	if f.program == nil {
		return true, nil
	}
	result, err := vm.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate gate for %q: %w", f.name, err)
	}
	ok, _ := result.(bool)
	return ok, nil
}
