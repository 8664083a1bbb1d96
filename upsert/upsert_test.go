package upsert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/medion-go/di"
	"github.com/medion-go/di/errorx"
)

type Foo struct{ Name string }

type Bar struct{}

type Baz struct{}

func identities(b di.ContainerBuilder) []di.Identity {
	var ids []di.Identity
	for _, d := range b.Descriptors() {
		ids = append(ids, d.Identity())
	}
	return ids
}

func TestUpsert_Appends(t *testing.T) {
	b := di.Builder()
	di.AddSingleton[*Bar](b, func() *Bar { return &Bar{} })

	_, err := UpsertTransient[*Foo](b, func() *Foo { return &Foo{Name: "a"} })
	require.NoError(t, err)

	require.Equal(t, []di.Identity{di.IdentityOf[*Bar](), di.IdentityOf[*Foo]()}, identities(b))
}

func TestUpsert_LifetimeSequence(t *testing.T) {
	b := di.Builder()

	_, err := UpsertTransient[*Foo](b, func() *Foo { return &Foo{Name: "first"} })
	require.NoError(t, err)
	_, err = UpsertScoped[*Foo](b, func() *Foo { return &Foo{Name: "second"} })
	require.NoError(t, err)
	_, err = UpsertTransient[*Foo](b, func() *Foo { return &Foo{Name: "third"} })
	require.NoError(t, err)

	require.Equal(t, 1, b.Len())
	require.Equal(t, di.Lifetime_Transient, b.At(0).Lifetime)

	c := b.Build()
	foo := di.Get[*Foo](c)
	require.Equal(t, "third", foo.Name)
	require.NotSame(t, foo, di.Get[*Foo](c))
}

func TestUpsert_Idempotent(t *testing.T) {
	ctor := func() *Foo { return &Foo{Name: "same"} }

	once := di.Builder()
	_, err := UpsertSingleton[*Foo](once, ctor)
	require.NoError(t, err)

	twice := di.Builder()
	_, err = UpsertSingleton[*Foo](twice, ctor)
	require.NoError(t, err)
	_, err = UpsertSingleton[*Foo](twice, ctor)
	require.NoError(t, err)

	require.Equal(t, identities(once), identities(twice))
	require.Equal(t, once.At(0).Lifetime, twice.At(0).Lifetime)
	require.Equal(t, di.Get[*Foo](once.Build()).Name, di.Get[*Foo](twice.Build()).Name)
}

func TestUpsert_PreservesOrderAndReplacesAllMatches(t *testing.T) {
	b := di.Builder()
	di.AddTransient[*Foo](b, func() *Foo { return &Foo{Name: "one"} })
	di.AddSingleton[*Bar](b, func() *Bar { return &Bar{} })
	di.AddTransient[*Foo](b, func() *Foo { return &Foo{Name: "two"} })
	di.AddSingleton[*Baz](b, func() *Baz { return &Baz{} })

	_, err := UpsertScoped[*Foo](b, func() *Foo { return &Foo{Name: "new"} })
	require.NoError(t, err)

	require.Equal(t, []di.Identity{
		di.IdentityOf[*Foo](),
		di.IdentityOf[*Bar](),
		di.IdentityOf[*Foo](),
		di.IdentityOf[*Baz](),
	}, identities(b))
	require.Same(t, b.At(0), b.At(2))

	scope := di.Get[di.ScopeFactory](b.Build()).CreateScope()
	defer scope.Dispose()

	foos := di.Get[[]*Foo](scope.Container())
	require.Len(t, foos, 2)
	for _, f := range foos {
		assert.Equal(t, "new", f.Name)
	}
}

func TestUpsert_KeysAreDistinct(t *testing.T) {
	b := di.Builder()
	_, err := UpsertInstance[*Foo](b, &Foo{Name: "plain"})
	require.NoError(t, err)
	_, err = UpsertKeyedInstance[*Foo](b, "", &Foo{Name: "empty key"})
	require.NoError(t, err)
	_, err = UpsertKeyedInstance[*Foo](b, "k", &Foo{Name: "k"})
	require.NoError(t, err)
	require.Equal(t, 3, b.Len())

	_, err = UpsertKeyedInstance[*Foo](b, "", &Foo{Name: "empty key again"})
	require.NoError(t, err)
	require.Equal(t, 3, b.Len())

	c := b.Build()
	require.Equal(t, "plain", di.Get[*Foo](c).Name)
	require.Equal(t, "empty key again", di.GetKeyed[*Foo](c, "").Name)
	require.Equal(t, "k", di.GetKeyed[*Foo](c, "k").Name)
}

func TestUpsert_KeyedFactory(t *testing.T) {
	b := di.Builder()
	_, err := UpsertKeyedFactory[*Foo](b, di.Lifetime_Scoped, "k", func(_ di.Container, key any) (any, error) {
		return &Foo{Name: key.(string)}, nil
	})
	require.NoError(t, err)

	scope := di.Get[di.ScopeFactory](b.Build()).CreateScope()
	defer scope.Dispose()

	foo := di.GetKeyed[*Foo](scope.Container(), "k")
	require.Equal(t, "k", foo.Name)
	require.Same(t, foo, di.GetKeyed[*Foo](scope.Container(), "k"))
}

func TestUpsert_InvalidStrategy(t *testing.T) {
	b := di.Builder()
	di.AddSingleton[*Bar](b, func() *Bar { return &Bar{} })

	r, err := Upsert(b, di.Lifetime_Transient, di.IdentityOf[*Foo](), di.Strategy{})

	var invalid *errorx.InvalidConfigurationError
	require.ErrorAs(t, err, &invalid)
	require.Same(t, b, r)
	require.Equal(t, 1, b.Len())
}

func TestUpsert_Logs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := di.Builder()
	b.ConfigureOptions(func(o *di.Options) { o.Logger = zap.New(core) })

	_, err := UpsertTransient[*Foo](b, func() *Foo { return &Foo{} })
	require.NoError(t, err)
	_, err = UpsertTransient[*Foo](b, func() *Foo { return &Foo{} })
	require.NoError(t, err)

	require.Equal(t, 1, logs.FilterMessage("upsert appended").Len())
	replaced := logs.FilterMessage("upsert replaced").All()
	require.Len(t, replaced, 1)
	require.Equal(t, "*upsert.Foo", replaced[0].ContextMap()["service"])
}
