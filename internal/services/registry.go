package services

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/damione1/backlog-poker/internal/backlog"
	"github.com/damione1/backlog-poker/internal/models"
)

// BacklogArchiver persists a completed room's finalized backlog so it can
// be served after the room is gone.
type BacklogArchiver interface {
	Save(roomID string, backlog []models.Feature) error
}

// Registry is the process-wide room map. It creates sessions on first join
// and retires them once the last participant disconnects; an empty room
// keeps no memory behind.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*RoomSession

	broadcaster Broadcaster
	seed        backlog.Loader
	archive     BacklogArchiver // nil disables archiving and redirect URLs
	publicURL   string
	metrics     *Metrics
}

func NewRegistry(b Broadcaster, seed backlog.Loader, archive BacklogArchiver, publicURL string, metrics *Metrics) *Registry {
	return &Registry{
		rooms:       make(map[string]*RoomSession),
		broadcaster: b,
		seed:        seed,
		archive:     archive,
		publicURL:   publicURL,
		metrics:     metrics,
	}
}

// Create makes a new room with a fresh uuid. A create without features
// falls back to the seed backlog, same as a room created on first join.
func (r *Registry) Create(name string, features []models.Feature) *RoomSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(features) == 0 && r.seed != nil {
		features = r.seed()
	}

	session := NewRoomSession(uuid.New().String(), name, features, r.broadcaster, r.metrics)
	r.configure(session)
	r.rooms[session.ID()] = session
	r.metrics.IncrementRooms()

	log.Printf("Room %s created (%q, %d features)", session.ID(), name, len(features))
	return session
}

// Get returns an existing room session.
func (r *Registry) Get(roomID string) (*RoomSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.rooms[roomID]
	if !ok {
		return nil, models.ErrRoomNotFound
	}
	return session, nil
}

// GetOrCreate returns the room session for roomID, creating it with the
// seed backlog when this is the first join.
func (r *Registry) GetOrCreate(roomID string) *RoomSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.rooms[roomID]; ok {
		return session
	}

	var features []models.Feature
	if r.seed != nil {
		features = r.seed()
	}

	session := NewRoomSession(roomID, roomID, features, r.broadcaster, r.metrics)
	r.configure(session)
	r.rooms[roomID] = session
	r.metrics.IncrementRooms()

	log.Printf("Room %s created on first join (%d seeded features)", roomID, len(features))
	return session
}

// HandleDisconnect forwards a transport-level closure to the room as an
// ordinary leave and evicts the session once the room is empty.
func (r *Registry) HandleDisconnect(roomID, participant string) {
	session, err := r.Get(roomID)
	if err != nil {
		return
	}

	if session.Leave(participant) {
		r.evict(roomID)
	}
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// SweepEmpty evicts rooms that lost all participants without a disconnect
// reaching HandleDisconnect. Safety net, normally a no-op. Rooms idle for
// less than olderThan are spared: a room created over the API is empty
// until its creator opens the WebSocket, and sweeping it would silently
// replace its explicit backlog with the seed file on the next join.
func (r *Registry) SweepEmpty(olderThan time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	count := 0
	for id, session := range r.rooms {
		if session.retireIfIdle(cutoff) {
			delete(r.rooms, id)
			r.metrics.DecrementRooms()
			count++
		}
	}
	return count
}

// evict drops an empty room. The emptiness reported by Leave is stale by
// the time the registry lock is held, so retire rechecks it; a join that
// slipped in keeps the room alive.
func (r *Registry) evict(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.rooms[roomID]
	if !ok {
		return
	}
	if !session.retire() {
		return
	}
	delete(r.rooms, roomID)
	r.metrics.DecrementRooms()
	log.Printf("Room %s evicted (empty)", roomID)
}

// configure wires the archive hook and redirect URL into a new session.
func (r *Registry) configure(session *RoomSession) {
	if r.archive == nil {
		return
	}

	session.SetBacklogURL(r.publicURL + "/final_backlog/" + session.ID())
	session.SetOnCompleted(func(roomID string, features []models.Feature) {
		if err := r.archive.Save(roomID, features); err != nil {
			log.Printf("⚠️  Failed to archive backlog for room %s: %v", roomID, err)
		}
	})
}
