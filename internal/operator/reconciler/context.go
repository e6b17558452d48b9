package reconciler

import (
	"context"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Context carries the state of a single pass for a single primary. It is
// owned by one goroutine and must not be shared between passes.
type Context struct {
	ctx         context.Context
	primary     ResourceID
	secondaries map[string]client.Object
}

// NewContext creates the pass context for primary.
func NewContext(ctx context.Context, primary ResourceID) *Context {
	return &Context{
		ctx:         ctx,
		primary:     primary,
		secondaries: make(map[string]client.Object),
	}
}

// Ctx returns the context bounding every external call of the pass.
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// Logger returns the pass logger.
func (c *Context) Logger() logr.Logger {
	return log.FromContext(c.ctx).WithValues("primary", c.primary.String())
}

// Primary returns the identity of the primary under reconciliation.
func (c *Context) Primary() ResourceID {
	return c.primary
}

// SetSecondary records the value a dependent computed or fetched in this pass.
func (c *Context) SetSecondary(name string, obj client.Object) {
	c.secondaries[name] = obj
}

// Secondary returns the value recorded by the named dependent in this pass.
func (c *Context) Secondary(name string) (client.Object, bool) {
	obj, ok := c.secondaries[name]
	return obj, ok
}
