package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medion-go/di/errorx"
	"github.com/medion-go/di/reflectx"
)

type greeter interface{ Greet() string }

type englishGreeter struct{ name string }

func (g *englishGreeter) Greet() string { return "hello " + g.name }

func newEnglishGreeter() *englishGreeter { return &englishGreeter{name: "ctor"} }

func resolveWith(t *testing.T, d *Descriptor) greeter {
	t.Helper()
	b := Builder()
	b.Add(d)
	c := b.Build()
	if d.IsKeyed() {
		return GetKeyed[greeter](c, d.Key)
	}
	return Get[greeter](c)
}

func TestCreate_NoStrategy(t *testing.T) {
	_, err := Create(Lifetime_Transient, IdentityOf[greeter](), Strategy{})

	var invalid *errorx.InvalidConfigurationError
	require.ErrorAs(t, err, &invalid)
}

func TestCreate_NonComparableKey(t *testing.T) {
	_, err := Create(Lifetime_Transient, KeyedIdentityOf[greeter]([]int{1}), Strategy{Ctor: newEnglishGreeter})

	var invalid *errorx.InvalidConfigurationError
	require.ErrorAs(t, err, &invalid)
}

func TestCreate_StrategyPrecedence(t *testing.T) {
	instance := &englishGreeter{name: "instance"}
	factory := func(Container) (any, error) { return &englishGreeter{name: "factory"}, nil }
	keyed := func(Container, any) (any, error) { return &englishGreeter{name: "keyed"}, nil }

	cases := []struct {
		name     string
		strategy Strategy
		expected string
	}{
		{"ctor wins", Strategy{Ctor: newEnglishGreeter, Instance: instance, Factory: factory, KeyedFactory: keyed}, "hello ctor"},
		{"instance over factories", Strategy{Instance: instance, Factory: factory, KeyedFactory: keyed}, "hello instance"},
		{"factory over keyed factory", Strategy{Factory: factory, KeyedFactory: keyed}, "hello factory"},
		{"keyed factory", Strategy{KeyedFactory: keyed}, "hello keyed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Create(Lifetime_Transient, IdentityOf[greeter](), tc.strategy)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, resolveWith(t, d).Greet())
		})
	}
}

func TestCreate_InstanceIsSingleton(t *testing.T) {
	d, err := Create(Lifetime_Transient, IdentityOf[greeter](), Strategy{Instance: &englishGreeter{}})
	require.NoError(t, err)
	require.Equal(t, Lifetime_Singleton, d.Lifetime)
}

func TestCreate_InstanceNotAssignable(t *testing.T) {
	_, err := Create(Lifetime_Singleton, IdentityOf[greeter](), Strategy{Instance: 42})

	var invalid *errorx.InvalidConfigurationError
	require.ErrorAs(t, err, &invalid)
}

func TestCreate_FactorySlots(t *testing.T) {
	var seenKey any = "unset"
	keyed := func(_ Container, key any) (any, error) {
		seenKey = key
		return &englishGreeter{name: "keyed"}, nil
	}

	unkeyed, err := Create(Lifetime_Transient, IdentityOf[greeter](), Strategy{KeyedFactory: keyed})
	require.NoError(t, err)
	require.NotNil(t, unkeyed.Factory)
	require.Nil(t, unkeyed.KeyedFactory)

	resolveWith(t, unkeyed)
	require.Nil(t, seenKey)

	plain := func(Container) (any, error) { return &englishGreeter{name: "plain"}, nil }
	promoted, err := Create(Lifetime_Transient, KeyedIdentityOf[greeter]("k"), Strategy{Factory: plain})
	require.NoError(t, err)
	require.Nil(t, promoted.Factory)
	require.NotNil(t, promoted.KeyedFactory)
	require.Equal(t, "hello plain", resolveWith(t, promoted).Greet())
}

func TestCopyWith_NoOverrides(t *testing.T) {
	sources := []*Descriptor{
		MustCreate(Lifetime_Scoped, IdentityOf[greeter](), Strategy{Ctor: newEnglishGreeter}),
		MustCreate(Lifetime_Singleton, KeyedIdentityOf[greeter]("k"), Strategy{Instance: &englishGreeter{name: "i"}}),
		MustCreate(Lifetime_Transient, KeyedIdentityOf[greeter]("k"), Strategy{
			KeyedFactory: func(_ Container, key any) (any, error) { return &englishGreeter{name: key.(string)}, nil },
		}),
	}

	for _, d := range sources {
		copied, err := CopyWith(d)
		require.NoError(t, err)
		require.NotSame(t, d, copied)
		require.Equal(t, d.Identity(), copied.Identity())
		require.Equal(t, d.Lifetime, copied.Lifetime)
		require.Equal(t, d.Ctor, copied.Ctor)
		require.Equal(t, d.Instance, copied.Instance)
		require.Equal(t, resolveWith(t, d).Greet(), resolveWith(t, copied).Greet())
	}
}

func TestCopyWith_Overrides(t *testing.T) {
	d := MustCreate(Lifetime_Scoped, KeyedIdentityOf[greeter]("k"), Strategy{Ctor: newEnglishGreeter})

	copied, err := CopyWith(d, WithLifetime(Lifetime_Transient), WithKey("other"))
	require.NoError(t, err)
	require.Equal(t, Lifetime_Transient, copied.Lifetime)
	require.Equal(t, "other", copied.Key)
	require.Same(t, d.Ctor, copied.Ctor)

	// the source is untouched
	require.Equal(t, Lifetime_Scoped, d.Lifetime)
	require.Equal(t, "k", d.Key)

	// nil keeps the key, RemoveKey always wins
	kept, err := CopyWith(d, WithKey(nil))
	require.NoError(t, err)
	require.Equal(t, "k", kept.Key)

	removed, err := CopyWith(d, WithKey("ignored"), RemoveKey())
	require.NoError(t, err)
	require.Nil(t, removed.Key)

	replaced, err := CopyWith(d, WithInstance(&englishGreeter{name: "new"}))
	require.NoError(t, err)
	require.Nil(t, replaced.Ctor)
	require.Equal(t, "hello new", resolveWith(t, replaced).Greet())

	retyped, err := CopyWith(d, WithServiceType(reflectx.TypeOf[*englishGreeter]()))
	require.NoError(t, err)
	require.Equal(t, reflectx.TypeOf[*englishGreeter](), retyped.ServiceType)
}

func TestCopyWith_KeyChangesFactorySlot(t *testing.T) {
	keyed := MustCreate(Lifetime_Transient, KeyedIdentityOf[greeter]("k"), Strategy{
		KeyedFactory: func(_ Container, key any) (any, error) {
			return &englishGreeter{name: keyString(key)}, nil
		},
	})

	demoted, err := CopyWith(keyed, RemoveKey())
	require.NoError(t, err)
	require.NotNil(t, demoted.Factory)
	require.Nil(t, demoted.KeyedFactory)
	require.Equal(t, "hello <nil>", resolveWith(t, demoted).Greet())

	promoted, err := CopyWith(demoted, WithKey("again"))
	require.NoError(t, err)
	require.Nil(t, promoted.Factory)
	require.NotNil(t, promoted.KeyedFactory)
	require.Equal(t, "hello <nil>", resolveWith(t, promoted).Greet())
}

func TestCopyWith_Origin(t *testing.T) {
	d := MustCreate(Lifetime_Transient, IdentityOf[greeter](), Strategy{Ctor: newEnglishGreeter})

	marked, err := CopyWith(d, WithOrigin("proxy"))
	require.NoError(t, err)
	require.Equal(t, "proxy", marked.Origin)

	unmarked, err := CopyWith(marked)
	require.NoError(t, err)
	require.Nil(t, unmarked.Origin)
}

func TestCopyWith_Forwards(t *testing.T) {
	d := MustCreate(Lifetime_Scoped, IdentityOf[greeter](), Strategy{Factory: func(Container) (any, error) {
		return newEnglishGreeter(), nil
	}})
	d.Forwards = true

	rekeyed, err := CopyWith(d, WithKey("k"))
	require.NoError(t, err)
	require.True(t, rekeyed.Forwards)

	replaced, err := CopyWith(d, WithCtor(newEnglishGreeter))
	require.NoError(t, err)
	require.False(t, replaced.Forwards)
}

func keyString(key any) string {
	if key == nil {
		return "<nil>"
	}
	return key.(string)
}
