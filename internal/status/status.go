// Package status defines the status records exchanged with a Tatami server.
package status

import (
	"strings"
	"time"
)

// Type tags what kind of timeline entry a status is.
type Type string

const (
	TypeStatus        Type = "STATUS"
	TypeShare         Type = "SHARE"
	TypeAnnouncement  Type = "ANNOUNCEMENT"
	TypeMentionShare  Type = "MENTION_SHARE"
	TypeMentionFriend Type = "MENTION_FRIEND"
)

// Position is the server's timeline position token (timelineId).
// It is opaque to the client: only the server knows how tokens order.
type Position string

// Status is one entry of a timeline.
type Status struct {
	ID         string   `json:"statusId"`
	Position   Position `json:"timelineId"`
	Type       Type     `json:"type"`
	Favorite   bool     `json:"favorite"`
	SharedByMe bool     `json:"shareByMe"`
	Announced  bool     `json:"announced,omitempty"`

	// Shares is nil until the share list has been requested.
	Shares []string `json:"shares"`

	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Content   string `json:"content"`
	GroupName string `json:"groupName,omitempty"`
	Date      Millis `json:"statusDate"`
}

// SupportsShares reports whether the server tracks who shared this entry.
func (s Status) SupportsShares() bool {
	return s.Type == TypeStatus
}

// SharesLoaded reports whether the share list has already been fetched.
func (s Status) SharesLoaded() bool {
	return s.Shares != nil
}

// Author returns "First Last" when known, otherwise the username.
func (s Status) Author() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return s.Username
	}
	return name
}

// Millis is a timestamp encoded as epoch milliseconds.
type Millis int64

// Time converts to time.Time. Zero stays zero.
func (m Millis) Time() time.Time {
	if m == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(m))
}

// MillisOf converts a time.Time into its wire form.
func MillisOf(t time.Time) Millis {
	if t.IsZero() {
		return 0
	}
	return Millis(t.UnixMilli())
}

// Patch is the partial update body for a status. Nil fields are omitted.
type Patch struct {
	Favorite  *bool `json:"favorite,omitempty"`
	Shared    *bool `json:"shared,omitempty"`
	Announced *bool `json:"announced,omitempty"`
}

// FavoritePatch sets the favorite flag.
func FavoritePatch(v bool) Patch { return Patch{Favorite: &v} }

// SharePatch sets the shared flag.
func SharePatch(v bool) Patch { return Patch{Shared: &v} }

// AnnouncePatch announces a status.
func AnnouncePatch() Patch {
	v := true
	return Patch{Announced: &v}
}

// Details is the status details document; only the share list is used.
type Details struct {
	SharedByLogins []string `json:"sharedByLogins"`
}

// Profile is the signed-in account shown in the header.
type Profile struct {
	Username       string `json:"username"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	StatusCount    int    `json:"statusCount"`
	FollowersCount int    `json:"followersCount"`
	FriendsCount   int    `json:"friendsCount"`
}

// DisplayName returns the best human name for the profile.
func (p Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Username
	}
	return name
}
