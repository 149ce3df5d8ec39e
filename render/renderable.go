package render

import "github.com/hupe1980/listflow/model"

// Renderable is the visual materialization capability for one item.
// Implementations are reused through the pool: Bind attaches an item,
// Unbind clears it, SetVisible toggles display.
type Renderable interface {
	Bind(item model.Item)
	Unbind()
	SetVisible(visible bool)
}

// Factory constructs fresh Renderables for the pool.
type Factory func() Renderable
