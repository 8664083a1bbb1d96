package di

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/medion-go/di/errorx"
	"github.com/medion-go/di/syncx"
)

type CallSiteKind byte

const (
	CallSiteKind_Constructor CallSiteKind = iota
	CallSiteKind_Constant
	CallSiteKind_Slice
	CallSiteKind_Container
	CallSiteKind_Scope
	CallSiteKind_Transient
	CallSiteKind_Singleton
	CallSiteKind_Factory
)

type CallSite interface {
	Identity() Identity
	ServiceType() reflect.Type
	Kind() CallSiteKind
	Value() any
	SetValue(any)
	Cache() ResultCache
}

//
type ConstantCallSite struct {
	identity Identity
	value    any
}

func (cs *ConstantCallSite) Value() any {
	return cs.value
}

func (cs *ConstantCallSite) SetValue(v any) {
	cs.value = v
}

func (cs *ConstantCallSite) DefaultValue() any {
	return cs.value
}

func (cs *ConstantCallSite) Identity() Identity {
	return cs.identity
}

func (cs *ConstantCallSite) ServiceType() reflect.Type {
	return cs.identity.Type
}

func (cs *ConstantCallSite) Kind() CallSiteKind {
	return CallSiteKind_Constant
}

func (cs *ConstantCallSite) Cache() ResultCache {
	return NoneResultCache
}

func newConstantCallSite(identity Identity, defaultValue any) *ConstantCallSite {
	return &ConstantCallSite{
		identity: identity,
		value:    defaultValue,
	}
}

//
type ConstructorCallSite struct {
	identity   Identity
	value      any
	Ctor       *ConstructorInfo
	Parameters []CallSite
	cache      ResultCache
}

func (cs *ConstructorCallSite) Value() any {
	return cs.value
}

func (cs *ConstructorCallSite) SetValue(v any) {
	cs.value = v
}

func (cs *ConstructorCallSite) Identity() Identity {
	return cs.identity
}

func (cs *ConstructorCallSite) ServiceType() reflect.Type {
	return cs.identity.Type
}

func (cs *ConstructorCallSite) Kind() CallSiteKind {
	return CallSiteKind_Constructor
}

func (cs *ConstructorCallSite) Cache() ResultCache {
	return cs.cache
}

func newConstructorCallSite(cache ResultCache, identity Identity, ctor *ConstructorInfo, parameters []CallSite) *ConstructorCallSite {
	return &ConstructorCallSite{
		cache:      cache,
		identity:   identity,
		Ctor:       ctor,
		Parameters: parameters,
	}
}

//
type FactoryCallSite struct {
	identity Identity
	value    any
	Factory  Factory
	cache    ResultCache
}

func (cs *FactoryCallSite) Value() any {
	return cs.value
}

func (cs *FactoryCallSite) SetValue(v any) {
	cs.value = v
}

func (cs *FactoryCallSite) Identity() Identity {
	return cs.identity
}

func (cs *FactoryCallSite) ServiceType() reflect.Type {
	return cs.identity.Type
}

func (cs *FactoryCallSite) Kind() CallSiteKind {
	return CallSiteKind_Factory
}

func (cs *FactoryCallSite) Cache() ResultCache {
	return cs.cache
}

func newFactoryCallSite(cache ResultCache, descriptor *Descriptor) *FactoryCallSite {
	factory := descriptor.Factory
	if descriptor.IsKeyed() {
		keyed, key := descriptor.KeyedFactory, descriptor.Key
		factory = func(c Container) (any, error) { return keyed(c, key) }
	}

	return &FactoryCallSite{
		cache:    cache,
		identity: descriptor.Identity(),
		Factory:  factory,
	}
}

//
type ContainerCallSite struct {
	value any
}

func (cs *ContainerCallSite) Value() any {
	return cs.value
}

func (cs *ContainerCallSite) SetValue(v any) {
	cs.value = v
}

func (cs *ContainerCallSite) Identity() Identity {
	return Identity{Type: ContainerType}
}

func (cs *ContainerCallSite) ServiceType() reflect.Type {
	return ContainerType
}

func (cs *ContainerCallSite) Kind() CallSiteKind {
	return CallSiteKind_Container
}

func (cs *ContainerCallSite) Cache() ResultCache {
	return NoneResultCache
}

//
type SliceCallSite struct {
	identity  Identity
	Elem      reflect.Type
	CallSites []CallSite
	cache     ResultCache
	value     any
}

func (cs *SliceCallSite) Value() any {
	return cs.value
}

func (cs *SliceCallSite) SetValue(v any) {
	cs.value = v
}

func (cs *SliceCallSite) Cache() ResultCache {
	return cs.cache
}

func (cs *SliceCallSite) Identity() Identity {
	return cs.identity
}

func (cs *SliceCallSite) ServiceType() reflect.Type {
	return cs.identity.Type
}

func (cs *SliceCallSite) Kind() CallSiteKind {
	return CallSiteKind_Slice
}

func newSliceCallSite(cache ResultCache, elem reflect.Type, key any, callSites []CallSite) *SliceCallSite {
	return &SliceCallSite{
		cache:     cache,
		Elem:      elem,
		CallSites: callSites,
		identity:  Identity{Type: reflect.SliceOf(elem), Key: key},
	}
}

//
type chainItem struct {
	Order int
	Ctor  *ConstructorInfo
}

type callSiteChain struct {
	items map[Identity]chainItem
}

func (c *callSiteChain) CheckCircularDependency(identity Identity) error {
	if _, ok := c.items[identity]; ok {
		return c.createCircularDependencyError(identity)
	}
	return nil
}

func (c *callSiteChain) Remove(identity Identity) {
	delete(c.items, identity)
}

// the ctor can be nil when the serviceType is a slice
func (c *callSiteChain) Add(identity Identity, ctor *ConstructorInfo) {
	c.items[identity] = chainItem{
		Order: len(c.items),
		Ctor:  ctor,
	}
}

func (c *callSiteChain) createCircularDependencyError(identity Identity) error {
	var sb strings.Builder
	sb.WriteString("a circular dependency was detected for the service of type '")
	sb.WriteString(identity.String())
	sb.WriteString("'.")
	// TODO: add resolution path

	return &errorx.CircularDependencyError{Message: sb.String()}
}

func newCallSiteChain() *callSiteChain {
	return &callSiteChain{
		items: make(map[Identity]chainItem),
	}
}

//

const DefaultSlot int = 0

type CallSiteFactory struct {
	descriptors      []*Descriptor
	callSiteCache    *syncx.Map[ServiceCacheKey, CallSite]
	descriptorLookup map[Identity]descriptorCacheItem
	callSiteLockers  *syncx.LockMap[Identity]
}

func (f *CallSiteFactory) Descriptors() []*Descriptor {
	return f.descriptors
}

func (f *CallSiteFactory) populate() {
	for _, descriptor := range f.descriptors {
		identity := descriptor.Identity()
		cacheItem := f.descriptorLookup[identity]
		f.descriptorLookup[identity] = cacheItem.Add(descriptor)
	}
}

func (f *CallSiteFactory) GetCallSite(identity Identity, chain *callSiteChain) (CallSite, error) {
	if site, ok := f.callSiteCache.Load(ServiceCacheKey{Identity: identity, Slot: DefaultSlot}); ok {
		return site, nil
	}

	return f.createCallSite(identity, chain)
}

func (f *CallSiteFactory) GetCallSiteByDescriptor(descriptor *Descriptor, chain *callSiteChain) (CallSite, error) {
	if descriptorCache, ok := f.descriptorLookup[descriptor.Identity()]; ok {
		return f.tryCreateExact(
			descriptor,
			chain,
			descriptorCache.GetSlot(descriptor))
	}

	return nil, errors.New("descriptorLookup didn't contain requested descriptor")

}

func (f *CallSiteFactory) createCallSite(identity Identity, chain *callSiteChain) (CallSite, error) {
	if err := chain.CheckCircularDependency(identity); err != nil {
		return nil, err
	}

	callSiteLocker := f.callSiteLockers.LoadOrCreate(identity)
	callSiteLocker.Lock()
	defer callSiteLocker.Unlock()

	if descriptor, ok := f.descriptorLookup[identity]; ok {
		return f.tryCreateExact(descriptor.Last(), chain, DefaultSlot)
	}

	if identity.Type.Kind() == reflect.Slice {
		return f.createSlice(identity, chain)
	}

	return nil, &errorx.ServiceNotFound{ServiceType: identity.Type, Key: identity.Key}
}

func (f *CallSiteFactory) tryCreateExact(descriptor *Descriptor, chain *callSiteChain, slot int) (CallSite, error) {
	identity := descriptor.Identity()
	callSiteKey := ServiceCacheKey{identity, slot}
	callSite, ok := f.callSiteCache.Load(callSiteKey)
	if ok {
		return callSite, nil
	}

	cache := newResultCacheWithLifetime(descriptor.Lifetime, identity, slot)
	cache.Borrowed = descriptor.Forwards

	var err error
	switch {
	case descriptor.Instance != nil:
		callSite = newConstantCallSite(identity, descriptor.Instance)
	case descriptor.Ctor != nil:
		callSite, err = f.createConstructorCallsite(cache, identity, descriptor.Ctor, chain)
		if err != nil {
			return nil, err
		}
	case descriptor.Factory != nil || descriptor.KeyedFactory != nil:
		callSite = newFactoryCallSite(cache, descriptor)
	default:
		return nil, &errorx.InvalidDescriptor{ServiceType: descriptor.ServiceType}
	}

	f.callSiteCache.Store(callSiteKey, callSite)
	return callSite, nil
}

func (f *CallSiteFactory) createConstructorCallsite(cache ResultCache, identity Identity, ctor *ConstructorInfo, chain *callSiteChain) (*ConstructorCallSite, error) {
	chain.Add(identity, ctor)
	defer chain.Remove(identity)

	if len(ctor.In) == 0 {
		return newConstructorCallSite(cache, identity, ctor, nil), nil
	}

	parameterCallSites, err := f.createArgumentCallSites(chain, ctor)
	if err != nil {
		return nil, err
	}

	return newConstructorCallSite(cache, identity, ctor, parameterCallSites), nil
}

func (f *CallSiteFactory) createArgumentCallSites(chain *callSiteChain, ctor *ConstructorInfo) ([]CallSite, error) {
	callSites := make([]CallSite, len(ctor.In))
	for i, t := range ctor.In {
		cs, err := f.GetCallSite(Identity{Type: t, Key: ctor.ParamKey(i)}, chain)
		if err != nil {
			return nil, err
		}
		callSites[i] = cs
	}
	return callSites, nil
}

func (f *CallSiteFactory) createSlice(identity Identity, chain *callSiteChain) (CallSite, error) {
	if identity.Type.Kind() != reflect.Slice {
		return nil, fmt.Errorf("service type '%v' is not slice", identity.Type)
	}

	key := ServiceCacheKey{identity, DefaultSlot}
	if callSite, ok := f.callSiteCache.Load(key); ok {
		return callSite, nil
	}

	chain.Add(identity, nil)
	defer chain.Remove(identity)

	elementType := identity.Type.Elem()
	cacheLocation := CacheLocation_Root
	callSites := make([]CallSite, 0)

	if descriptorCache, ok := f.descriptorLookup[Identity{Type: elementType, Key: identity.Key}]; ok {
		num := descriptorCache.Num()
		for i := 0; i < num; i++ {
			cs, err := f.tryCreateExact(descriptorCache.Get(i), chain, num-i-1)
			if err != nil {
				return nil, err
			}

			cacheLocation = f.getCommonCacheLocation(cacheLocation, cs.Cache().Location)
			callSites = append(callSites, cs)
		}
	}

	resultCache := NoneResultCache
	if cacheLocation == CacheLocation_Scope || cacheLocation == CacheLocation_Root {
		resultCache = newResultCache(cacheLocation, key)
	}

	return newSliceCallSite(resultCache, elementType, identity.Key, callSites[:len(callSites):len(callSites)]), nil
}

func (f *CallSiteFactory) Add(identity Identity, callSite CallSite) {
	f.callSiteCache.Store(ServiceCacheKey{Identity: identity, Slot: DefaultSlot}, callSite)
}

// Determines if the specified service type is available from the ServiceProvider.
func (f *CallSiteFactory) IsService(serviceType reflect.Type) bool {
	return f.IsKeyedService(serviceType, nil)
}

// Determines if the specified service type is available under key.
func (f *CallSiteFactory) IsKeyedService(serviceType reflect.Type, key any) bool {
	if serviceType == nil {
		return false
	}

	if _, ok := f.descriptorLookup[Identity{Type: serviceType, Key: key}]; ok {
		return true
	}

	if serviceType.Kind() == reflect.Slice {
		return true
	}

	if key != nil {
		return false
	}

	return serviceType == ContainerType ||
		serviceType == ScopeFactoryType ||
		serviceType == IsServiceType
}

func (f *CallSiteFactory) getCommonCacheLocation(locationA CacheLocation, locationB CacheLocation) CacheLocation {
	if locationA > locationB {
		return locationA
	}
	return locationB

}

func newCallSiteFactory(descriptors []*Descriptor) *CallSiteFactory {
	d := make([]*Descriptor, len(descriptors))
	copy(d, descriptors)

	f := &CallSiteFactory{
		descriptors:      d,
		callSiteCache:    syncx.NewMap[ServiceCacheKey, CallSite](),
		descriptorLookup: make(map[Identity]descriptorCacheItem),
		callSiteLockers:  &syncx.LockMap[Identity]{},
	}

	f.populate()
	return f
}

type descriptorCacheItem struct {
	item  *Descriptor
	items []*Descriptor
}

func (dci descriptorCacheItem) Last() *Descriptor {
	if l := len(dci.items); l > 0 {
		return dci.items[l-1]
	}

	return dci.item
}

func (dci descriptorCacheItem) Num() int {
	if dci.item == nil {
		return 0
	}

	return 1 + len(dci.items)
}

func (dci descriptorCacheItem) Get(index int) *Descriptor {
	if index >= dci.Num() {
		panic("index out of range")
	}

	if index == 0 {
		return dci.item
	}

	return dci.items[index-1]
}

func (dci descriptorCacheItem) GetSlot(descriptor *Descriptor) int {
	if descriptor == dci.item {
		return dci.Num() - 1
	}

	if l := len(dci.items); l > 0 {
		for i := range dci.items {
			if descriptor == dci.items[i] {
				return l - (i + 1)
			}
		}
	}

	panic(errors.New("descriptor not exist"))
}

func (dci descriptorCacheItem) Add(descriptor *Descriptor) descriptorCacheItem {
	var newCacheItem descriptorCacheItem
	if dci.item == nil {
		newCacheItem.item = descriptor
	} else {
		newCacheItem.item = dci.item
		newCacheItem.items = append(dci.items, descriptor)
	}
	return newCacheItem
}
