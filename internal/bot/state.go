package bot

import "sync"

// Dialog steps of the stepwise search setup.
const (
	stepCity = iota + 1
	stepType
	stepCount
)

// dialog is one chat's position in the city → type → count sequence.
type dialog struct {
	step int
	city string
	biz  string
}

// dialogs holds per-chat dialog state. It is owned by the front-end and
// handed to the crawl engine only as a finished query, never shared.
type dialogs struct {
	mu sync.Mutex
	m  map[int64]dialog
}

func newDialogs() *dialogs {
	return &dialogs{m: make(map[int64]dialog)}
}

// begin puts a chat at the first step, replacing any unfinished dialog.
func (d *dialogs) begin(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[id] = dialog{step: stepCity}
}

// snapshot returns the chat's dialog, if one is active.
func (d *dialogs) snapshot(id int64) (dialog, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dlg, ok := d.m[id]
	return dlg, ok
}

// set stores the chat's dialog.
func (d *dialogs) set(id int64, dlg dialog) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[id] = dlg
}

// clear ends the chat's dialog.
func (d *dialogs) clear(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.m, id)
}
