package game

// Player is the per-session record for one room member. It is owned
// exclusively by the session's roster and survives disconnects so a
// returning player keeps their score.
type Player struct {
	ID                uint   `json:"id"`
	Username          string `json:"username"`
	Score             int    `json:"score"`
	CorrectGuessCount int    `json:"correctGuessCount"`
	HasDrawnThisRound bool   `json:"hasDrawnThisRound"`
	Connected         bool   `json:"connected"`
}

// Roster tracks who is in a room, in join order, and which of them is
// host. Mutations happen only on the owning room's goroutine.
type Roster struct {
	players []*Player
	byID    map[uint]*Player
	hostID  uint
}

func NewRoster() *Roster {
	return &Roster{byID: make(map[uint]*Player)}
}

// Join adds a player, or marks an existing entry connected again when
// the same identity returns. The first player to join becomes host.
// The second return value reports whether this was a reconnect.
func (r *Roster) Join(id uint, username string) (*Player, bool) {
	if p, ok := r.byID[id]; ok {
		p.Connected = true
		return p, true
	}
	p := &Player{ID: id, Username: username, Connected: true}
	r.players = append(r.players, p)
	r.byID[id] = p
	if len(r.players) == 1 {
		r.hostID = id
	}
	return p, false
}

// Leave removes the player entirely. If the host leaves, the
// earliest-joined connected player inherits the role.
func (r *Roster) Leave(id uint) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, p := range r.players {
		if p.ID == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	if r.hostID == id {
		r.hostID = 0
		for _, p := range r.players {
			if p.Connected {
				r.hostID = p.ID
				break
			}
		}
	}
	return true
}

func (r *Roster) SetConnected(id uint, connected bool) bool {
	p, ok := r.byID[id]
	if !ok {
		return false
	}
	p.Connected = connected
	if !connected && r.hostID == id {
		for _, q := range r.players {
			if q.Connected {
				r.hostID = q.ID
				break
			}
		}
	}
	return true
}

func (r *Roster) Get(id uint) (*Player, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// List returns the players in join order. The slice is shared; callers
// must not mutate it.
func (r *Roster) List() []*Player {
	return r.players
}

func (r *Roster) HostID() uint {
	return r.hostID
}

func (r *Roster) Len() int {
	return len(r.players)
}

func (r *Roster) ConnectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.Connected {
			n++
		}
	}
	return n
}

// IDs returns the ids of all players, used for room-wide notifications.
func (r *Roster) IDs() []uint {
	ids := make([]uint, 0, len(r.players))
	for _, p := range r.players {
		ids = append(ids, p.ID)
	}
	return ids
}
