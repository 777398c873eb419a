package audioplayer

import "sync"

// Registry holds the queues of all the guilds.
// Queues are created on first access and live
// for as long as the process.
type Registry struct {
	mutex  sync.Mutex
	queues map[string]*GuildQueue
}

// NewRegistry constructs a new object
// that holds the queues for all the guilds
func NewRegistry() *Registry {
	return &Registry{
		queues: make(map[string]*GuildQueue),
	}
}

// GetOrCreate returns the guild's queue, creating
// an empty one if the guild has none yet.
func (r *Registry) GetOrCreate(guildID string) *GuildQueue {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	q, ok := r.queues[guildID]
	if !ok {
		q = newGuildQueue(guildID)
		r.queues[guildID] = q
	}
	return q
}

// Get returns the queue for the guildID,
// returns nil, false if there is no such queue
func (r *Registry) Get(guildID string) (*GuildQueue, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	q, ok := r.queues[guildID]
	return q, ok
}

// Keys returns the guildIDs of all the queues
func (r *Registry) Keys() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	keys := make([]string, 0, len(r.queues))
	for k := range r.queues {
		keys = append(keys, k)
	}
	return keys
}
