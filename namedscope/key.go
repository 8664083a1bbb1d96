package namedscope

import "fmt"

// Key is the service key a binding declared within a named scope is stored
// under: the scope name and the key the binding was declared with.
type Key struct {
	Scope string
	Inner any
}

// Equal reports whether both the scope name and the inner key are equal.
func (k Key) Equal(other Key) bool {
	return k.Scope == other.Scope && k.Inner == other.Inner
}

func (k Key) String() string {
	if k.Inner == nil {
		return k.Scope
	}
	return fmt.Sprintf("%s/%v", k.Scope, k.Inner)
}

// fallbackKey holds a binding registered outside any named scope for an
// identity that also has named-scope bindings.
type fallbackKey struct {
	Inner any
}

// proxyOrigin marks the descriptors installed to forward to named-scope bindings.
type proxyOrigin struct{}

func scopeKey(key any, name string) (Key, bool) {
	k, ok := key.(Key)
	return k, ok && k.Scope == name
}
