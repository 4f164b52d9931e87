package ecs

// UpdateFrame is handed to every system during one Scheduler pass.
type UpdateFrame struct {
	DeltaTime float64
	Tick      uint64
	Commands  *Commands
	Storage   *Storage
}

func newUpdateFrame(dt float64, tick uint64, storage *Storage) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Tick:      tick,
		Commands:  newCommands(),
		Storage:   storage,
	}
}
