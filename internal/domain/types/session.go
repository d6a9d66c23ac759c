package types

import "time"

// PushState is the resumable state of the push-channel connection.
type PushState struct {
	Token       string    `json:"token"`
	RelayURL    string    `json:"relay_url"`
	Topics      []Topic   `json:"topics,omitempty"`
	ConnectedAt time.Time `json:"connected_at,omitempty"`
}

// SessionState is the credential bundle persisted between runs.
type SessionState struct {
	Push   PushState      `json:"push"`
	Users  []UserIdentity `json:"users"`
	Device DeviceIdentity `json:"identity"`
}

// Primary returns the primary user and whether one exists.
func (s SessionState) Primary() (UserIdentity, bool) {
	if len(s.Users) == 0 {
		return UserIdentity{}, false
	}
	return s.Users[0], true
}

// Clone returns a deep copy of s.
func (s SessionState) Clone() SessionState {
	out := s
	out.Push.Topics = append([]Topic(nil), s.Push.Topics...)
	out.Users = CloneUsers(s.Users)
	return out
}
