package entity

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAnnotationNotFound = errors.New("annotation not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrEmptyCommentText   = errors.New("comment text is required")
	ErrInvalidCoordinates = errors.New("annotation x and y coordinates must be numbers")
)

// File is the document aggregate. Annotations, approvals and versions are
// stored with it and always saved together.
type File struct {
	ID              uuid.UUID        `json:"id"`
	Number          int64            `json:"number"`
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	Description     string           `json:"description"`
	Size            string           `json:"size"`
	OwnerID         uuid.UUID        `json:"userId"`
	Owner           *Profile         `json:"owner,omitempty"`
	FolderID        uuid.UUID        `json:"folderId"`
	ContentKey      string           `json:"path"`
	AdditionalFiles []AdditionalFile `json:"additionalFiles"`
	Versions        []Version        `json:"versions"`
	Annotations     []Annotation     `json:"annotations"`
	Approvals       []Approval       `json:"approvals"`
	Revision        int64            `json:"revision"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type AdditionalFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      string    `json:"size"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Version struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Date      time.Time `json:"date"`
	Size      string    `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Annotation struct {
	ID         int        `json:"id"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Comments   []Comment  `json:"comments"`
	Resolved   bool       `json:"resolved"`
	ResolvedBy *uuid.UUID `json:"resolvedBy"`
	ResolvedAt *time.Time `json:"resolvedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type Comment struct {
	ID          int       `json:"id"`
	Author      Author    `json:"author"`
	Avatar      string    `json:"avatar,omitempty"`
	AvatarColor string    `json:"avatarColor,omitempty"`
	Text        string    `json:"text"`
	Time        time.Time `json:"time"`
	Edited      bool      `json:"edited"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Approval struct {
	Author      Author    `json:"author"`
	Avatar      string    `json:"avatar,omitempty"`
	AvatarColor string    `json:"avatarColor,omitempty"`
	ApprovedAt  time.Time `json:"approvedAt"`
}

// NextAnnotationID is one past the highest annotation id, 1 for a file
// without annotations. Ids of deleted annotations are not handed out again
// as long as a higher one exists.
func (f *File) NextAnnotationID() int {
	maxID := 0
	for _, a := range f.Annotations {
		if a.ID > maxID {
			maxID = a.ID
		}
	}
	return maxID + 1
}

// AddAnnotation appends a new unresolved annotation. Initial comments are
// renumbered from 1 inside the new annotation.
func (f *File) AddAnnotation(x, y float64, comments []Comment, now time.Time) (Annotation, error) {
	if !finite(x) || !finite(y) {
		return Annotation{}, ErrInvalidCoordinates
	}

	annotation := Annotation{
		ID:        f.NextAnnotationID(),
		X:         x,
		Y:         y,
		Comments:  []Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, c := range comments {
		if _, err := annotation.AddComment(c, now); err != nil {
			return Annotation{}, err
		}
	}

	f.Annotations = append(f.Annotations, annotation)
	f.UpdatedAt = now
	return annotation, nil
}

// Annotation returns a pointer into the file's annotation slice.
func (f *File) Annotation(id int) (*Annotation, error) {
	for i := range f.Annotations {
		if f.Annotations[i].ID == id {
			return &f.Annotations[i], nil
		}
	}
	return nil, ErrAnnotationNotFound
}

func (a *Annotation) NextCommentID() int {
	maxID := 0
	for _, c := range a.Comments {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	return maxID + 1
}

// AddComment assigns the next scoped id and stamps the comment times.
// Author and avatar fields are taken as given.
func (a *Annotation) AddComment(c Comment, now time.Time) (Comment, error) {
	c.Text = strings.TrimSpace(c.Text)
	if c.Text == "" {
		return Comment{}, ErrEmptyCommentText
	}
	if c.Author.Kind() == "" {
		c.Author = GuestAuthor("")
	}

	c.ID = a.NextCommentID()
	c.Time = now
	c.Edited = false
	c.CreatedAt = now
	c.UpdatedAt = now

	a.Comments = append(a.Comments, c)
	a.UpdatedAt = now
	return c, nil
}

// UpdateComment replaces the text only; the author never changes.
func (a *Annotation) UpdateComment(id int, text string, now time.Time) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyCommentText
	}
	for i := range a.Comments {
		if a.Comments[i].ID == id {
			a.Comments[i].Text = text
			a.Comments[i].Edited = true
			a.Comments[i].UpdatedAt = now
			a.UpdatedAt = now
			return a.Comments[i], nil
		}
	}
	return Comment{}, ErrCommentNotFound
}

// DeleteComment rebuilds the thread without the given id.
func (a *Annotation) DeleteComment(id int, now time.Time) error {
	kept := make([]Comment, 0, len(a.Comments))
	for _, c := range a.Comments {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(a.Comments) {
		return ErrCommentNotFound
	}
	a.Comments = kept
	a.UpdatedAt = now
	return nil
}

func (a *Annotation) SetResolved(resolved bool, by uuid.UUID, now time.Time) {
	a.Resolved = resolved
	if resolved {
		a.ResolvedBy = &by
		a.ResolvedAt = &now
	} else {
		a.ResolvedBy = nil
		a.ResolvedAt = nil
	}
	a.UpdatedAt = now
}

// Approve appends the approval. A registered user keeps at most one
// approval per file: the older one is removed first. Guests always append.
func (f *File) Approve(approval Approval) {
	if userID, ok := approval.Author.UserID(); ok {
		f.WithdrawApproval(userID)
	}
	f.Approvals = append(f.Approvals, approval)
	f.UpdatedAt = approval.ApprovedAt
}

// WithdrawApproval drops every approval recorded for the user.
func (f *File) WithdrawApproval(userID uuid.UUID) {
	kept := make([]Approval, 0, len(f.Approvals))
	for _, existing := range f.Approvals {
		if !existing.Author.IsUser(userID) {
			kept = append(kept, existing)
		}
	}
	f.Approvals = kept
}

// AddVersions numbers new versions after the existing ones.
func (f *File) AddVersions(versions []Version, now time.Time) []Version {
	added := make([]Version, 0, len(versions))
	base := len(f.Versions)
	for i, v := range versions {
		v.ID = base + i + 1
		v.Date = now
		v.CreatedAt = now
		v.UpdatedAt = now
		added = append(added, v)
	}
	f.Versions = append(f.Versions, added...)
	f.UpdatedAt = now
	return added
}

// FormatSize renders a byte count the way clients display it,
// e.g. "512 Bytes", "1.50 KB", "2.00 MB".
func FormatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes < kb:
		return fmt.Sprintf("%d Bytes", bytes)
	case bytes < mb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/kb)
	case bytes < gb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/mb)
	default:
		return fmt.Sprintf("%.2f GB", float64(bytes)/gb)
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
