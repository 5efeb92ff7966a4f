// internal/bootstrap/lifecycle.go
//
// Service lifetime.
//
// Providers run while a handler prepares its container and may open
// long-lived handles (database pools, GeoIP readers, the vault renewal
// loop).  Each container gets a service context and a list of release
// functions.  Both are released when the next handler replaces the
// container, and on Close.
package bootstrap

import (
	"context"
	"errors"
)

// ServiceContext is cancelled when the current container is released.
func (o *Orchestrator) ServiceContext() context.Context {
	if o.svcCtx == nil {
		o.svcCtx, o.svcCancel = context.WithCancel(context.Background())
	}
	return o.svcCtx
}

// OnRelease registers fn to run when the current container is released.
// Release runs functions in reverse registration order.
func (o *Orchestrator) OnRelease(fn func() error) {
	o.closers = append(o.closers, fn)
}

// Close releases every service opened for the current container.
func (o *Orchestrator) Close() error {
	return o.release()
}

func (o *Orchestrator) release() error {
	if o.svcCancel != nil {
		o.svcCancel()
	}
	o.svcCtx, o.svcCancel = nil, nil

	var errs []error
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	o.closers = nil
	if err := errors.Join(errs...); err != nil {
		o.log.Warnw("service release failed", "err", err)
		return err
	}
	return nil
}
