package soft

import (
	"fmt"
	"sort"
	"sync"

	"quarkcube/device"
)

// LedgerStats summarizes object lifetimes.
type LedgerStats struct {
	Live            int
	Created         int
	Released        int
	DoubleReleases  int
	OrderViolations int
}

// ledger tracks every object of a provider and who depends on whom.
//
// Two relations keep an object alive. A reference (retain) is shared
// ownership: the object is freed once every reference is dropped. A hold is a
// strict dependency: the last Release of a held object fails with
// device.ErrInUse until the holder is freed or lets go.
type ledger struct {
	mu     sync.Mutex
	nextID int
	live   map[*object]struct{}
	stats  LedgerStats
	log    func(string)
}

type object struct {
	id       int
	kind     string
	refs     int
	holders  map[*object]int
	holding  map[*object]int
	retained []*object
	onFree   func()
}

func newLedger(log func(string)) *ledger {
	if log == nil {
		log = func(string) {}
	}
	return &ledger{live: make(map[*object]struct{}), log: log}
}

func (o *object) String() string { return fmt.Sprintf("%s#%d", o.kind, o.id) }

// add registers a new object holding each of deps.
func (l *ledger) add(kind string, deps ...*object) *object {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	o := &object{
		id:      l.nextID,
		kind:    kind,
		refs:    1,
		holders: make(map[*object]int),
		holding: make(map[*object]int),
	}
	l.live[o] = struct{}{}
	l.stats.Created++
	l.stats.Live++
	for _, d := range deps {
		l.holdLocked(d, o)
	}
	return o
}

func (l *ledger) hold(o, by *object) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holdLocked(o, by)
}

func (l *ledger) holdLocked(o, by *object) {
	if o == nil || by == nil {
		return
	}
	o.holders[by]++
	by.holding[o]++
}

func (l *ledger) drop(o, by *object) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dropLocked(o, by)
}

func (l *ledger) dropLocked(o, by *object) {
	if o == nil || by == nil {
		return
	}
	if o.holders[by] <= 1 {
		delete(o.holders, by)
	} else {
		o.holders[by]--
	}
	if by.holding[o] <= 1 {
		delete(by.holding, o)
	} else {
		by.holding[o]--
	}
}

// retain makes by own a reference to o, dropped when by is freed.
func (l *ledger) retain(o, by *object) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o.refs++
	by.retained = append(by.retained, o)
}

// unretain gives back a reference taken with retain.
func (l *ledger) unretain(o, by *object) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, r := range by.retained {
		if r == o {
			by.retained = append(by.retained[:i], by.retained[i+1:]...)
			return l.releaseLocked(o)
		}
	}
	return device.ErrNotAttached
}

// alive reports whether o has not been freed.
func (l *ledger) alive(o *object) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return o != nil && o.refs > 0
}

// release drops one reference to o.
func (l *ledger) release(o *object) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.releaseLocked(o)
}

func (l *ledger) releaseLocked(o *object) error {
	if o.refs <= 0 {
		l.stats.DoubleReleases++
		l.log(fmt.Sprintf("soft: %v released twice", o))
		return device.ErrReleased
	}
	if o.refs == 1 && len(o.holders) > 0 {
		l.stats.OrderViolations++
		l.log(fmt.Sprintf("soft: %v released while held by %s", o, holderNames(o)))
		return device.ErrInUse
	}
	o.refs--
	if o.refs > 0 {
		return nil
	}

	delete(l.live, o)
	l.stats.Live--
	l.stats.Released++
	for h := range o.holding {
		delete(h.holders, o)
	}
	o.holding = nil
	retained := o.retained
	o.retained = nil
	if o.onFree != nil {
		o.onFree()
	}
	for _, r := range retained {
		if err := l.releaseLocked(r); err != nil {
			l.log(fmt.Sprintf("soft: dropping reference to %v: %v", r, err))
		}
	}
	return nil
}

func (l *ledger) snapshot() LedgerStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *ledger) liveNames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.live))
	for o := range l.live {
		names = append(names, o.String())
	}
	sort.Strings(names)
	return names
}

func holderNames(o *object) string {
	names := make([]string, 0, len(o.holders))
	for h := range o.holders {
		names = append(names, h.String())
	}
	sort.Strings(names)
	return fmt.Sprint(names)
}
