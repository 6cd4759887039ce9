// Package ecs holds the entity/component store that every other simulation
// system reads and writes. The store is the single source of truth for
// gameplay state; systems never keep shadow copies of component data.
package ecs

import (
	"encoding/json"
	"fmt"
	"sort"
)

// EntityID is an opaque, non-reusable identifier. IDs only ever move
// forward within a session; a destroyed ID is never handed out again.
type EntityID int64

// Store maps entities to named component records. It is owned by a single
// goroutine (the room's tick loop) and is not safe for concurrent use.
type Store struct {
	nextID   EntityID
	entities map[EntityID]map[string]any
}

func NewStore() *Store {
	return &Store{
		nextID:   1,
		entities: make(map[EntityID]map[string]any),
	}
}

// CreateEntity allocates the next identifier. Networked gameplay entities
// are created through CreateEntityWithID using a server-sanctioned value;
// this path exists for the server itself and for local sessions.
func (s *Store) CreateEntity() EntityID {
	id := s.nextID
	s.nextID++
	s.entities[id] = make(map[string]any)
	return id
}

// CreateEntityWithID registers an entity under a server-supplied identifier
// and raises the local counter past it so the two never collide.
func (s *Store) CreateEntityWithID(id EntityID) error {
	if id <= 0 {
		return fmt.Errorf("ecs: invalid entity id %d", id)
	}
	if _, exists := s.entities[id]; exists {
		return fmt.Errorf("ecs: entity %d already exists", id)
	}
	s.entities[id] = make(map[string]any)
	if id >= s.nextID {
		s.nextID = id + 1
	}
	return nil
}

// SyncNextEntityID raises the counter floor. Lowering is ignored so a stale
// sync can never cause identifier reuse.
func (s *Store) SyncNextEntityID(next EntityID) {
	if next > s.nextID {
		s.nextID = next
	}
}

// NextEntityID reports the identifier the next CreateEntity call returns.
func (s *Store) NextEntityID() EntityID {
	return s.nextID
}

// DestroyEntity removes the entity and all its components.
func (s *Store) DestroyEntity(id EntityID) bool {
	if _, exists := s.entities[id]; !exists {
		return false
	}
	delete(s.entities, id)
	return true
}

func (s *Store) EntityExists(id EntityID) bool {
	_, exists := s.entities[id]
	return exists
}

// Len reports the number of live entities.
func (s *Store) Len() int {
	return len(s.entities)
}

// AddComponent attaches data under the given component name, replacing any
// existing record of that name. The entity must exist.
func (s *Store) AddComponent(id EntityID, name string, data any) error {
	comps, exists := s.entities[id]
	if !exists {
		return fmt.Errorf("ecs: entity %d does not exist", id)
	}
	comps[name] = data
	return nil
}

func (s *Store) GetComponent(id EntityID, name string) (any, bool) {
	comps, exists := s.entities[id]
	if !exists {
		return nil, false
	}
	data, ok := comps[name]
	return data, ok
}

func (s *Store) HasComponent(id EntityID, name string) bool {
	comps, exists := s.entities[id]
	if !exists {
		return false
	}
	_, ok := comps[name]
	return ok
}

func (s *Store) RemoveComponent(id EntityID, name string) {
	if comps, exists := s.entities[id]; exists {
		delete(comps, name)
	}
}

// EntitiesWith returns every entity carrying all named components, in
// ascending ID order. Sorted iteration keeps every caller deterministic;
// map order must never leak into gameplay decisions.
func (s *Store) EntitiesWith(names ...string) []EntityID {
	ids := make([]EntityID, 0)
	for id, comps := range s.entities {
		match := true
		for _, name := range names {
			if _, ok := comps[name]; !ok {
				match = false
				break
			}
		}
		if match {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EntitySnapshot is the battle-end resync layout: entity id to component
// name to a plain-data copy of the component.
type EntitySnapshot map[EntityID]map[string]json.RawMessage

// Snapshot serializes every entity's full component set. Components are
// plain data records; the JSON round trip is the copy.
func (s *Store) Snapshot() (EntitySnapshot, error) {
	snapshot := make(EntitySnapshot, len(s.entities))
	for _, id := range s.EntitiesWith() {
		comps := s.entities[id]
		copied := make(map[string]json.RawMessage, len(comps))
		for name, data := range comps {
			raw, err := json.Marshal(data)
			if err != nil {
				return nil, fmt.Errorf("ecs: snapshot entity %d component %s: %w", id, name, err)
			}
			copied[name] = raw
		}
		snapshot[id] = copied
	}
	return snapshot, nil
}

// Restore replaces the store contents from a snapshot, decoding known
// component names into their typed records. The ID counter is raised past
// the highest restored entity.
func (s *Store) Restore(snapshot EntitySnapshot) error {
	entities := make(map[EntityID]map[string]any, len(snapshot))
	highest := EntityID(0)
	for id, comps := range snapshot {
		decoded := make(map[string]any, len(comps))
		for name, raw := range comps {
			data, err := decodeComponent(name, raw)
			if err != nil {
				return fmt.Errorf("ecs: restore entity %d component %s: %w", id, name, err)
			}
			decoded[name] = data
		}
		entities[id] = decoded
		if id > highest {
			highest = id
		}
	}
	s.entities = entities
	if highest >= s.nextID {
		s.nextID = highest + 1
	}
	return nil
}
