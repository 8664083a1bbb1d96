package di

import "context"

type ServiceAccessor func(*ContainerEngineScope, context.Context) (any, error)

type ContainerEngine interface {
	RealizeService(CallSite) (ServiceAccessor, error)
}

type containerEngine struct {
	container *container
}

func (engine *containerEngine) RealizeService(callSite CallSite) (ServiceAccessor, error) {
	return func(scope *ContainerEngineScope, ctx context.Context) (any, error) {
		return CallSiteResolverInstance.Resolve(callSite, scope, ctx)
	}, nil
}

func newContainerEngine(c *container) ContainerEngine {
	return &containerEngine{container: c}
}
