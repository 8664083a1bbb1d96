// Package upsert registers services by identity: a registration replaces every
// descriptor with the same service type and key, or is appended when there is none.
package upsert

import (
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/medion-go/di"
)

// Upsert builds a descriptor from strategy and puts it in place of every
// descriptor registered under identity, keeping the registry order. When no
// descriptor matches it is appended. The registry is modified in place and
// returned for chaining.
func Upsert(b di.ContainerBuilder, lifetime di.Lifetime, identity di.Identity, strategy di.Strategy) (di.ContainerBuilder, error) {
	d, err := di.Create(lifetime, identity, strategy)
	if err != nil {
		return b, errors.Annotatef(err, "upsert %v", identity)
	}

	Descriptor(b, d)
	return b, nil
}

// Descriptor upserts an already built descriptor.
func Descriptor(b di.ContainerBuilder, d *di.Descriptor) di.ContainerBuilder {
	logger := b.Options().Log()
	identity := d.Identity()

	indices := b.IndicesOf(identity)
	if len(indices) == 0 {
		b.Add(d)
		logger.Debug("upsert appended",
			zap.Stringer("service", identity),
			zap.Stringer("lifetime", d.Lifetime))
		return b
	}

	for _, i := range indices {
		b.Set(i, d)
	}
	logger.Debug("upsert replaced",
		zap.Stringer("service", identity),
		zap.Stringer("lifetime", d.Lifetime),
		zap.Ints("positions", indices))
	return b
}
