package entity

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

type AuthorKind string

const (
	AuthorUser  AuthorKind = "user"
	AuthorGuest AuthorKind = "guest"
)

// DefaultGuestName is used when a guest leaves no name.
const DefaultGuestName = "Guest"

var ErrInvalidAuthor = errors.New("author must be either a user id or a guest name")

// Author is either a registered user or a named guest, never both.
// The zero value is not a valid author; use UserAuthor or GuestAuthor.
type Author struct {
	kind      AuthorKind
	userID    uuid.UUID
	guestName string
}

func UserAuthor(id uuid.UUID) Author {
	return Author{kind: AuthorUser, userID: id}
}

func GuestAuthor(name string) Author {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultGuestName
	}
	return Author{kind: AuthorGuest, guestName: name}
}

func (a Author) Kind() AuthorKind {
	return a.kind
}

// UserID returns the user id and true for registered authors.
func (a Author) UserID() (uuid.UUID, bool) {
	return a.userID, a.kind == AuthorUser
}

// GuestName returns the display name and true for guest authors.
func (a Author) GuestName() (string, bool) {
	return a.guestName, a.kind == AuthorGuest
}

func (a Author) IsUser(id uuid.UUID) bool {
	return a.kind == AuthorUser && a.userID == id
}

type authorJSON struct {
	Type      AuthorKind `json:"type"`
	UserID    *uuid.UUID `json:"userId"`
	GuestName *string    `json:"guestName"`
}

func (a Author) MarshalJSON() ([]byte, error) {
	out := authorJSON{Type: a.kind}
	switch a.kind {
	case AuthorUser:
		id := a.userID
		out.UserID = &id
	case AuthorGuest:
		name := a.guestName
		out.GuestName = &name
	default:
		return nil, ErrInvalidAuthor
	}
	return json.Marshal(out)
}

func (a *Author) UnmarshalJSON(data []byte) error {
	var in authorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	hasUser := in.UserID != nil && *in.UserID != uuid.Nil
	hasGuest := in.GuestName != nil && strings.TrimSpace(*in.GuestName) != ""

	switch {
	case hasUser && !hasGuest && in.Type != AuthorGuest:
		*a = UserAuthor(*in.UserID)
	case hasGuest && !hasUser && in.Type != AuthorUser:
		*a = GuestAuthor(*in.GuestName)
	default:
		return ErrInvalidAuthor
	}
	return nil
}
