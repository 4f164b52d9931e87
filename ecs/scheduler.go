package ecs

import (
	"reflect"
	"time"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	Ticks           uint64
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type storageBinder interface {
	Init(storage *Storage)
}

type executor interface {
	Execute()
}

type registeredSystem struct {
	system  System
	queries []executor
	stats   SystemStats
}

// Scheduler runs systems in registration order. Commands issued by a system are
// flushed before the next system runs.
type Scheduler struct {
	storage *Storage
	systems []*registeredSystem
	ticks   uint64
}

// NewScheduler creates a new scheduler for the given storage.
func NewScheduler(storage *Storage) *Scheduler {
	return &Scheduler{storage: storage}
}

// Register adds a system and binds its exported Query and Singleton fields.
func (s *Scheduler) Register(system System) {
	entry := &registeredSystem{
		system: system,
		stats: SystemStats{
			Name:        systemName(system),
			MinDuration: time.Duration(1<<63 - 1),
		},
	}
	entry.queries = s.bindFields(system)
	s.systems = append(s.systems, entry)
}

func systemName(system System) string {
	t := reflect.TypeOf(system)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func (s *Scheduler) bindFields(system System) []executor {
	value := reflect.ValueOf(system)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}

	var queries []executor
	for i := 0; i < value.NumField(); i++ {
		field := value.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		binder, ok := field.Addr().Interface().(storageBinder)
		if !ok {
			continue
		}
		binder.Init(s.storage)

		if q, ok := binder.(executor); ok {
			queries = append(queries, q)
		}
	}
	return queries
}

// Once executes all registered systems once with the given delta time.
func (s *Scheduler) Once(dt float64) {
	s.ticks++
	frame := newUpdateFrame(dt, s.ticks, s.storage)

	for _, entry := range s.systems {
		start := time.Now()
		for _, q := range entry.queries {
			q.Execute()
		}
		entry.system.Execute(frame)
		frame.Commands.Flush(s.storage)
		entry.record(time.Since(start))
	}
}

func (e *registeredSystem) record(d time.Duration) {
	st := &e.stats
	st.ExecutionCount++
	st.LastDuration = d
	st.TotalDuration += d
	st.MinDuration = min(st.MinDuration, d)
	st.MaxDuration = max(st.MaxDuration, d)
}

// Ticks returns how many times Once has run.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Ticks:       s.ticks,
		Systems:     make([]SystemStats, len(s.systems)),
	}

	for i, entry := range s.systems {
		st := entry.stats
		if st.ExecutionCount > 0 {
			st.AvgDuration = st.TotalDuration / time.Duration(st.ExecutionCount)
		} else {
			st.MinDuration = 0
		}
		stats.Systems[i] = st
		stats.TotalExecutions += st.ExecutionCount
	}
	return stats
}
