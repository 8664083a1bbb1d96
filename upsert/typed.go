package upsert

import (
	"github.com/medion-go/di"
)

func UpsertSingleton[T any](b di.ContainerBuilder, ctor any) (di.ContainerBuilder, error) {
	return Upsert(b, di.Lifetime_Singleton, di.IdentityOf[T](), di.Strategy{Ctor: ctor})
}

func UpsertScoped[T any](b di.ContainerBuilder, ctor any) (di.ContainerBuilder, error) {
	return Upsert(b, di.Lifetime_Scoped, di.IdentityOf[T](), di.Strategy{Ctor: ctor})
}

func UpsertTransient[T any](b di.ContainerBuilder, ctor any) (di.ContainerBuilder, error) {
	return Upsert(b, di.Lifetime_Transient, di.IdentityOf[T](), di.Strategy{Ctor: ctor})
}

// UpsertInstance upserts instance as the singleton service T.
func UpsertInstance[T any](b di.ContainerBuilder, instance T) (di.ContainerBuilder, error) {
	return Upsert(b, di.Lifetime_Singleton, di.IdentityOf[T](), di.Strategy{Instance: instance})
}

func UpsertFactory[T any](b di.ContainerBuilder, lifetime di.Lifetime, factory di.Factory) (di.ContainerBuilder, error) {
	return Upsert(b, lifetime, di.IdentityOf[T](), di.Strategy{Factory: factory})
}

func UpsertKeyedSingleton[T any](b di.ContainerBuilder, key any, ctor any) (di.ContainerBuilder, error) {
	return Upsert(b, di.Lifetime_Singleton, di.KeyedIdentityOf[T](key), di.Strategy{Ctor: ctor})
}

func UpsertKeyedScoped[T any](b di.ContainerBuilder, key any, ctor any) (di.ContainerBuilder, error) {
	return Upsert(b, di.Lifetime_Scoped, di.KeyedIdentityOf[T](key), di.Strategy{Ctor: ctor})
}

func UpsertKeyedTransient[T any](b di.ContainerBuilder, key any, ctor any) (di.ContainerBuilder, error) {
	return Upsert(b, di.Lifetime_Transient, di.KeyedIdentityOf[T](key), di.Strategy{Ctor: ctor})
}

func UpsertKeyedInstance[T any](b di.ContainerBuilder, key any, instance T) (di.ContainerBuilder, error) {
	return Upsert(b, di.Lifetime_Singleton, di.KeyedIdentityOf[T](key), di.Strategy{Instance: instance})
}

func UpsertKeyedFactory[T any](b di.ContainerBuilder, lifetime di.Lifetime, key any, factory di.KeyedFactory) (di.ContainerBuilder, error) {
	return Upsert(b, lifetime, di.KeyedIdentityOf[T](key), di.Strategy{KeyedFactory: factory})
}
