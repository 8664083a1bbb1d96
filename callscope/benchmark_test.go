package callscope

import (
	"testing"

	"github.com/medion-go/di"
)

func benchBuilder(b *testing.B) di.ContainerBuilder {
	cb := di.Builder()
	di.AddSingleton[*Repository](cb, func() *Repository { return &Repository{} })
	di.AddTransient[*Handler](cb, Ctor(newHandler, 0))
	if err := RegisterAll(cb); err != nil {
		b.Fatal(err)
	}
	return cb
}

func Benchmark_ResolveWithArgs(b *testing.B) {
	c := benchBuilder(b).Build()

	for b.Loop() {
		if _, err := ResolveWithArgs[*Handler](c, Request{ID: 1}); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_ResolveWithArgsParallel(b *testing.B) {
	c := benchBuilder(b).Build()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := ResolveWithArgs[*Handler](c, Request{ID: 1}); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
