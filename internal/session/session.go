package session

import "time"

// Roles carried by authenticated actors.
const (
	RoleLecturer = "lecturer"
	RoleAdmin    = "admin"
)

// Actor is the authenticated principal performing an operation.
type Actor struct {
	ID   string
	Role string
}

// IsAdmin reports whether the actor holds the administrative role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Session is the schedulable unit: a lecturer-owned, time- and
// location-bounded window during which attendance may be recorded.
// ID is empty until the repository assigns one.
type Session struct {
	ID         string
	ProgramID  int
	CourseID   int
	LecturerID string
	StreamID   *int
	CreatedAt  time.Time
	Window     TimeWindow
	Location   Location
}

// OwnedBy reports whether the actor may read or mutate this session:
// the owning lecturer always may, administrators always may.
func (s Session) OwnedBy(a Actor) bool {
	return a.ID == s.LecturerID || a.IsAdmin()
}

// WithWindow derives a copy bound to the same id with a replaced window.
func (s Session) WithWindow(w TimeWindow) Session {
	s.Window = w
	return s
}

// WithLocation derives a copy bound to the same id with a replaced location.
func (s Session) WithLocation(l Location) Session {
	s.Location = l
	return s
}
