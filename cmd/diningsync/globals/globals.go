package globals

import (
	"context"
	"diningsync/internal/config"
	"diningsync/lib/restyutil"
)

type key struct{}

type Value struct {
	Config config.Config
	Debug  bool
	// HttpOutput is nil unless running with --debug.
	HttpOutput restyutil.InstrumentOutput
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}
