package entity

import (
	"time"

	"github.com/google/uuid"
)

type ResourceType string

const (
	ResourceFolder ResourceType = "folder"
	ResourceFile   ResourceType = "file"
)

func (r ResourceType) Valid() bool {
	return r == ResourceFolder || r == ResourceFile
}

// Permission levels are ordered: view < edit < delete.
type Permission string

const (
	PermissionView   Permission = "view"
	PermissionEdit   Permission = "edit"
	PermissionDelete Permission = "delete"
)

func (p Permission) Rank() int {
	switch p {
	case PermissionView:
		return 1
	case PermissionEdit:
		return 2
	case PermissionDelete:
		return 3
	}
	return 0
}

func (p Permission) Valid() bool {
	return p.Rank() > 0
}

// Share grants SharedWith access to a folder or to one file of a folder.
// ResourceID is set only for file shares; FolderID is always set.
// Shares are never updated, revocation deletes the row.
type Share struct {
	ID           uuid.UUID    `json:"id"`
	ResourceType ResourceType `json:"resourceType"`
	ResourceID   *uuid.UUID   `json:"resourceId"`
	FolderID     uuid.UUID    `json:"folderId"`
	SharedBy     uuid.UUID    `json:"sharedBy"`
	SharedWith   uuid.UUID    `json:"sharedWith"`
	Permission   Permission   `json:"permissions"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Grants reports whether the share gives access to the given file.
func (s *Share) Grants(file *File) bool {
	switch s.ResourceType {
	case ResourceFolder:
		return s.FolderID == file.FolderID
	case ResourceFile:
		return s.ResourceID != nil && *s.ResourceID == file.ID
	}
	return false
}
