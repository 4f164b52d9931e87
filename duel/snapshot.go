package duel

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// EntityState is the serialized form of one entity. Player and obstacle
// attributes are omitted for the other kinds.
type EntityState struct {
	Type string  `json:"type" msgpack:"type"`
	X    float64 `json:"x" msgpack:"x"`
	Y    float64 `json:"y" msgpack:"y"`

	HP         *int  `json:"hp,omitempty" msgpack:"hp,omitempty"`
	Armor      *int  `json:"armor,omitempty" msgpack:"armor,omitempty"`
	IsBlocking *bool `json:"is_blocking,omitempty" msgpack:"is_blocking,omitempty"`

	Width  *float64 `json:"width,omitempty" msgpack:"width,omitempty"`
	Height *float64 `json:"height,omitempty" msgpack:"height,omitempty"`
}

// Snapshot is a self-contained copy of the engine state.
type Snapshot struct {
	Entities  map[EntityID]EntityState `json:"entities" msgpack:"entities"`
	GameOver  bool                     `json:"game_over" msgpack:"game_over"`
	IsRunning bool                     `json:"is_running" msgpack:"is_running"`
	Players   []EntityID               `json:"players" msgpack:"players"`
	Winner    EntityID                 `json:"winner,omitempty" msgpack:"winner,omitempty"`
}

func emptySnapshot() Snapshot {
	return Snapshot{
		Entities: make(map[EntityID]EntityState),
		Players:  make([]EntityID, 0),
	}
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Entities = maps.Clone(s.Entities)
	out.Players = slices.Clone(s.Players)
	if out.Entities == nil {
		out.Entities = make(map[EntityID]EntityState)
	}
	if out.Players == nil {
		out.Players = make([]EntityID, 0)
	}
	return out
}

// JSON encodes the snapshot in its wire format.
func (s Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// EncodeSnapshot encodes s as msgpack using the same field names as JSON.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return msgpack.Marshal(&s)
}

func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func entityState(r *Registry, id EntityID, kind Kind) (EntityState, bool) {
	k := mustGet[Kinematics](r, id)
	if k == nil {
		return EntityState{}, false
	}
	state := EntityState{Type: kind.String(), X: k.X, Y: k.Y}

	switch kind {
	case KindPlayer:
		health := mustGet[Health](r, id)
		armor := mustGet[Armor](r, id)
		if health == nil || armor == nil {
			return EntityState{}, false
		}
		hp, value, blocking := health.HP, armor.Value, armor.Blocking
		state.HP, state.Armor, state.IsBlocking = &hp, &value, &blocking
	case KindObstacle:
		size := mustGet[Size](r, id)
		if size == nil {
			return EntityState{}, false
		}
		w, h := size.Width, size.Height
		state.Width, state.Height = &w, &h
	}
	return state, true
}
