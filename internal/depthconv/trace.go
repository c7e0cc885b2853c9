package depthconv

import (
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/born-ml/depthconv/internal/tensor"
)

// tracer logs the intermediates of a single call. A nil *tracer is valid and
// logs nothing, so call sites need no guards.
type tracer struct {
	id string
	op string
}

func (e *Engine) newTracer(op string) *tracer {
	if !e.cfg.Trace {
		return nil
	}
	t := &tracer{id: uuid.NewString(), op: op}
	klog.Infof("depthconv[%s] %s: start", t.id, op)
	return t
}

// tensor logs the shape of an intermediate, and its values at verbosity 4.
func (t *tracer) tensor(name string, r *tensor.RawTensor) {
	if t == nil || r == nil {
		return
	}
	klog.Infof("depthconv[%s] %s: %s %s", t.id, t.op, name, r)
	if klog.V(4).Enabled() {
		klog.V(4).Infof("depthconv[%s] %s: %s = %v", t.id, t.op, name, r.Float64s())
	}
}

// printf logs a free-form message.
func (t *tracer) printf(format string, args ...any) {
	if t == nil {
		return
	}
	klog.Infof("depthconv[%s] %s: "+format, append([]any{t.id, t.op}, args...)...)
}

// done logs the outcome of the call.
func (t *tracer) done(err error) {
	if t == nil {
		return
	}
	if err != nil {
		klog.Warningf("depthconv[%s] %s: failed: %v", t.id, t.op, err)
		return
	}
	klog.Infof("depthconv[%s] %s: done", t.id, t.op)
}
