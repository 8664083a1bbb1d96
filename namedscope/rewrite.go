// Package namedscope restricts bindings to scopes created with a name.
//
// A binding declared within a named scope is stored under a Key made of the
// scope name and its own key. Its original identity is taken by a proxy that
// forwards to the binding of the name of the resolving scope, or to the
// binding registered outside any named scope when there is none.
package namedscope

import (
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/medion-go/di"
	"github.com/medion-go/di/errorx"
	"github.com/medion-go/di/upsert"
)

// WithinNamedScope runs configure against a registry seeded with the
// singletons of b and the bindings already declared within the scope name,
// keyed as they were declared. The singletons configure adds are added to b
// as they are; every other binding is made visible only in scopes named name.
func WithinNamedScope(b di.ContainerBuilder, name string, configure func(di.ContainerBuilder)) (di.ContainerBuilder, error) {
	if name == "" {
		return b, errorx.NewArgumentError("the scope name is empty")
	}

	options := b.Options()
	sub := di.Builder()
	sub.ConfigureOptions(func(o *di.Options) { *o = options })

	seeded, err := seed(sub, b, name)
	if err != nil {
		return b, errors.Annotatef(err, "seed named scope %q", name)
	}

	configure(sub)

	for _, d := range sub.Descriptors() {
		if seeded[d] || d.Origin == (proxyOrigin{}) {
			continue
		}
		if d.Lifetime == di.Lifetime_Singleton {
			b.Add(d)
			continue
		}

		named, err := di.CopyWith(d, di.WithKey(Key{Scope: name, Inner: d.Key}))
		if err != nil {
			return b, errors.Annotatef(err, "bind %v within named scope %q", d.Identity(), name)
		}
		upsert.Descriptor(b, named)

		if err := installProxy(b, d, options.Log()); err != nil {
			return b, errors.Annotatef(err, "proxy %v", d.Identity())
		}
	}

	b.TryAdd(di.Scoped[*ScopeName](newScopeName))
	return b, nil
}

func seed(sub, b di.ContainerBuilder, name string) (map[*di.Descriptor]bool, error) {
	seeded := make(map[*di.Descriptor]bool)
	for _, d := range b.Descriptors() {
		if d.Lifetime == di.Lifetime_Singleton {
			sub.Add(d)
			seeded[d] = true
			continue
		}

		k, ok := scopeKey(d.Key, name)
		if !ok {
			continue
		}

		option := di.WithKey(k.Inner)
		if k.Inner == nil {
			option = di.RemoveKey()
		}
		copied, err := di.CopyWith(d, option)
		if err != nil {
			return nil, err
		}
		sub.Add(copied)
		seeded[copied] = true
	}
	return seeded, nil
}

// installProxy moves the plain bindings of the identity of d to their
// fallback key and adds the proxy of the identity unless one exists.
func installProxy(b di.ContainerBuilder, d *di.Descriptor, logger *zap.Logger) error {
	identity := d.Identity()

	proxied := false
	for _, i := range b.IndicesOf(identity) {
		existing := b.At(i)
		if existing.Origin == (proxyOrigin{}) {
			proxied = true
			continue
		}

		fallback, err := di.CopyWith(existing, di.WithKey(fallbackKey{Inner: identity.Key}))
		if err != nil {
			return err
		}
		b.Set(i, fallback)
		logger.Debug("named scope fallback rekeyed", zap.Stringer("service", identity))
	}
	if proxied {
		return nil
	}

	proxy, err := di.Create(d.Lifetime, identity, di.Strategy{Factory: forward(identity)})
	if err != nil {
		return err
	}
	proxy.Origin = proxyOrigin{}
	proxy.Forwards = true
	b.Add(proxy)

	logger.Debug("named scope proxy installed",
		zap.Stringer("service", identity),
		zap.Stringer("lifetime", d.Lifetime))
	return nil
}

func forward(identity di.Identity) di.Factory {
	fallback := fallbackKey{Inner: identity.Key}

	return func(c di.Container) (any, error) {
		holder, err := di.TryGet[*ScopeName](c)
		if err != nil {
			return nil, errors.Annotatef(err, "resolve the scope name for %v", identity)
		}
		is, err := di.TryGet[di.IsService](c)
		if err != nil {
			return nil, errors.Trace(err)
		}

		name, named := holder.Name()
		if named {
			key := Key{Scope: name, Inner: identity.Key}
			if is.IsKeyedService(identity.Type, key) {
				return c.GetKeyed(identity.Type, key)
			}
		}
		if is.IsKeyedService(identity.Type, fallback) {
			return c.GetKeyed(identity.Type, fallback)
		}
		if !named {
			return nil, &errorx.NoActiveNamedScopeError{ServiceType: identity.Type, Key: identity.Key}
		}
		return c.GetKeyed(identity.Type, Key{Scope: name, Inner: identity.Key})
	}
}
