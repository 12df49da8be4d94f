package reminder

import (
	"kratzbaum/internal/eventbus"
	"kratzbaum/internal/storage"
	logx "kratzbaum/pkg/logx"
)

// Deps are the collaborators shared by the reconciler, the accessors and
// the sweep. Store is required; the rest default to no-ops.
type Deps struct {
	Store storage.Store
	Clock Clock
	Log   logx.Logger
	Bus   eventbus.Bus
}

func (d Deps) normalized() Deps {
	if d.Store == nil {
		panic("reminder: nil store")
	}
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	if d.Bus == nil {
		d.Bus = eventbus.Nop()
	}
	return d
}
