package logger

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"math/rand"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

// *=myns             => any level, myns namespace
// info,warn:myns.*   => info or warn level, any namespace matching myns.*
// warn+:*            => warn and above, everywhere
const defaultRule = "*"

var Log *zap.Logger

var currentFilter atomic.Value

// Named returns a logger for namespace s.
func Named(s string) *zap.Logger {
	return Log.Named(s)
}

type ctxKey string

var kCtxID = ctxKey("ctxID")

func Ctx(prev *zap.Logger, ctx context.Context) *zap.Logger {
	if v, ok := ctx.Value(kCtxID).(string); ok {
		return prev.With(zap.String("ctxID", v))
	}
	return prev
}

func NewContextid(ctx context.Context) context.Context {
	w := make([]byte, 8)
	v := rand.Uint64()
	binary.BigEndian.PutUint64(w, v)
	f := hex.EncodeToString(w)
	return context.WithValue(ctx, kCtxID, f)
}

// SetRule swaps the filter applied to every logger, including the ones
// already handed out by Named.
func SetRule(rule string) error {
	filter, err := zapfilter.ParseRules(rule)
	if err != nil {
		return err
	}
	currentFilter.Store(filter)
	return nil
}

func dynamicFilter(entry zapcore.Entry, fields []zapcore.Field) bool {
	return currentFilter.Load().(zapfilter.FilterFunc)(entry, fields)
}

// newLogger wraps core in the filter installed by SetRule.
func newLogger(core zapcore.Core) *zap.Logger {
	return zap.New(zapfilter.NewFilteringCore(core, dynamicFilter))
}

func init() {
	devLog, _ := zap.NewDevelopment()
	currentFilter.Store(zapfilter.MustParseRules(defaultRule))
	Log = newLogger(devLog.Core())
}
