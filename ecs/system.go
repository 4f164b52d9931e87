package ecs

// System represents a behavior that operates on entities with specific components.
// Systems may declare Query and Singleton fields; the Scheduler binds them to its
// storage on registration and executes the queries before every run.
type System interface {
	Execute(frame *UpdateFrame)
}
