package assemble

import (
	"sync"

	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// Hook function types for assembly events
type (
	// TableAssembledHook is called after a template's table is registered
	TableAssembledHook func(template string, t *table.Table, report Report)

	// TemplateFailedHook is called after a template fails
	TemplateFailedHook func(report Report)
)

// hooks manages assembly callbacks. Hooks run on the calling goroutine,
// in request order.
type hooks struct {
	mu          sync.RWMutex
	onAssembled []TableAssembledHook
	onFailed    []TemplateFailedHook
}

// OnTableAssembled registers a callback for successfully assembled tables
func (h *hooks) OnTableAssembled(fn TableAssembledHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAssembled = append(h.onAssembled, fn)
}

// OnTemplateFailed registers a callback for failed templates
func (h *hooks) OnTemplateFailed(fn TemplateFailedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFailed = append(h.onFailed, fn)
}

func (h *hooks) triggerAssembled(template string, t *table.Table, report Report) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onAssembled {
		fn(template, t, report)
	}
}

func (h *hooks) triggerFailed(report Report) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onFailed {
		fn(report)
	}
}
