package ecs

// Commands buffers structural changes issued while a system runs.
// The Scheduler flushes the buffer after each system returns, so iteration
// never observes entities appearing or disappearing mid-pass.
type Commands struct {
	spawns  [][]any
	deletes []EntityId
	defers  []func()
}

func newCommands() *Commands {
	return &Commands{}
}

// Spawn queues an entity spawn with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, components)
}

// Delete queues an entity deletion. Queuing the same entity twice is harmless.
func (c *Commands) Delete(entity EntityId) {
	c.deletes = append(c.deletes, entity)
}

// Defer queues fn to run after deletes and spawns have been applied.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Pending returns the number of queued operations.
func (c *Commands) Pending() int {
	return len(c.spawns) + len(c.deletes) + len(c.defers)
}

// Flush applies deletes, then spawns, then deferred functions, and resets the buffer.
func (c *Commands) Flush(storage *Storage) {
	deleted := make(map[EntityId]struct{}, len(c.deletes))
	for _, id := range c.deletes {
		if _, done := deleted[id]; done {
			continue
		}
		deleted[id] = struct{}{}
		storage.Delete(id)
	}

	for _, components := range c.spawns {
		storage.Spawn(components...)
	}

	for _, fn := range c.defers {
		fn()
	}

	c.spawns = c.spawns[:0]
	c.deletes = c.deletes[:0]
	c.defers = c.defers[:0]
}
