package session

// Session is the per-request view of a browser session. Handlers receive it
// explicitly and the Manager persists it before the response is written.
type Session struct {
	id      string
	staleID string
	data    Data
	dirty   bool
}

// UserID returns the logged-in user, if any.
func (s *Session) UserID() (uint, bool) {
	return s.data.UserID, s.data.UserID != 0
}

// Login binds the session to userID under a fresh session id.
func (s *Session) Login(userID uint) {
	s.rotate()
	s.data = Data{UserID: userID, Flashes: s.data.Flashes}
	s.dirty = true
}

// Clear forgets the user and everything else stored in the session.
func (s *Session) Clear() {
	s.rotate()
	s.data = Data{}
	s.dirty = true
}

func (s *Session) AddFlash(msg string) {
	s.data.Flashes = append(s.data.Flashes, msg)
	s.dirty = true
}

// Flashes returns the pending flash messages and removes them from the session.
func (s *Session) Flashes() []string {
	flashes := s.data.Flashes
	if len(flashes) > 0 {
		s.data.Flashes = nil
		s.dirty = true
	}
	return flashes
}

func (s *Session) rotate() {
	if s.id != "" && s.staleID == "" {
		s.staleID = s.id
	}
	s.id = ""
}
