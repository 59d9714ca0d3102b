package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"github.com/rs/zerolog/log"
)

type stack[V any] []V

func (s *stack[V]) Push(v V) int {
	*s = append(*s, v)
	return len(*s)
}

func (s *stack[V]) Last() (V, bool) {
	l := len(*s)
	if l == 0 {
		var zero V
		return zero, false
	}
	return (*s)[l-1], true
}

func (s *stack[V]) Pop() (V, bool) {
	last, ok := s.Last()
	if ok {
		*s = (*s)[:len(*s)-1]
	}
	return last, ok
}

// ViewStack is the main pane: a root view (the selected game) with views
// such as settings pushed on top of it.
type ViewStack struct {
	host      *fyne.Container
	viewStack stack[fyne.CanvasObject]
}

func NewViewStack(root fyne.CanvasObject) *ViewStack {
	v := &ViewStack{host: container.NewStack(root)}
	v.viewStack.Push(root)
	return v
}

// Container is the canvas object to place in the window layout.
func (v *ViewStack) Container() fyne.CanvasObject {
	return v.host
}

func (v *ViewStack) Depth() int {
	return len(v.viewStack)
}

func (v *ViewStack) Current() fyne.CanvasObject {
	last, _ := v.viewStack.Last()
	return last
}

func (v *ViewStack) PushContent(content fyne.CanvasObject) {
	v.viewStack.Push(content)
	v.show(content)
}

// Reset drops every pushed view and shows content as the new root.
func (v *ViewStack) Reset(content fyne.CanvasObject) {
	v.viewStack = v.viewStack[:1]
	v.viewStack[0] = content
	v.show(content)
}

func (v *ViewStack) PopContent() {
	if len(v.viewStack) == 1 {
		log.Debug().Msg("attempting to pop from root view")
		return
	}

	v.viewStack.Pop()
	last, _ := v.viewStack.Last()
	v.show(last)
}

func (v *ViewStack) show(content fyne.CanvasObject) {
	v.host.Objects = []fyne.CanvasObject{content}
	content.Show()
	v.host.Refresh()
}
