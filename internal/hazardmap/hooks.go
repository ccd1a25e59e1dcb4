package hazardmap

import "sync"

// hooks holds the rendering layer's subscriptions. Each registration
// returns a function that removes it.
type hooks struct {
	mu       sync.Mutex
	next     int
	reports  map[int]func(View)
	filter   map[int]func(View)
	viewport map[int]func(Overlay)
}

// OnReportsChanged registers fn to run after the report list changes.
func (c *Controller) OnReportsChanged(fn func(View)) (unsubscribe func()) {
	return subscribe(&c.hooks, &c.hooks.reports, fn)
}

// OnFilterChanged registers fn to run after the time filter or heatmap mode changes.
func (c *Controller) OnFilterChanged(fn func(View)) (unsubscribe func()) {
	return subscribe(&c.hooks, &c.hooks.filter, fn)
}

// OnViewportChanged registers fn to run after the heat layer is re-projected.
func (c *Controller) OnViewportChanged(fn func(Overlay)) (unsubscribe func()) {
	return subscribe(&c.hooks, &c.hooks.viewport, fn)
}

func subscribe[T any](h *hooks, set *map[int]func(T), fn func(T)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if *set == nil {
		*set = make(map[int]func(T))
	}
	id := h.next
	h.next++
	(*set)[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(*set, id)
	}
}

func snapshot[T any](h *hooks, set *map[int]func(T)) []func(T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fns := make([]func(T), 0, len(*set))
	for _, fn := range *set {
		fns = append(fns, fn)
	}
	return fns
}

func (h *hooks) fireReports(v View) {
	for _, fn := range snapshot(h, &h.reports) {
		fn(v)
	}
}

func (h *hooks) fireFilter(v View) {
	for _, fn := range snapshot(h, &h.filter) {
		fn(v)
	}
}

func (h *hooks) fireViewport(o Overlay) {
	for _, fn := range snapshot(h, &h.viewport) {
		fn(o)
	}
}
