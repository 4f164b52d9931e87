package ecs_test

import "github.com/plus3/arenaduel/ecs"

// Common test component types
type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type Projectile struct{}

type Bounds struct {
	Size float64
}

// Named primitives are valid components too
type Score int32
type Temperature float64

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Name](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[Projectile](registry)
	ecs.RegisterComponent[Bounds](registry)
	ecs.RegisterComponent[Score](registry)
	ecs.RegisterComponent[Temperature](registry)
	return registry
}
