package state

import "fmt"

// Parameter is a named value owned by a dynamical system or a controller.
type Parameter[T any] struct {
	name  string
	value T
}

func NewParameter[T any](name string, value T) Parameter[T] {
	return Parameter[T]{name: name, value: value}
}

func (p Parameter[T]) Name() string { return p.name }
func (p Parameter[T]) Value() T     { return p.value }

func (p *Parameter[T]) SetValue(value T) { p.value = value }

func (p Parameter[T]) String() string {
	return fmt.Sprintf("%s: %v", p.name, p.value)
}
