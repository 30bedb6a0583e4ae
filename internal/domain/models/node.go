package models

import (
	"time"
)

// Node is a single entry in the file tree. Files and folders share one
// table; folders never carry a payload.
//
// Name uniqueness among siblings is case-sensitive (byte order), and listings
// sort by the same rule. The rule is enforced by a unique index on
// (parent_id, name, is_folder), so a file and a folder may share a name.
type Node struct {
	ID            string    `json:"id" db:"id"`
	ParentID      *string   `json:"parent_id" db:"parent_id"` // NULL = root level
	Name          string    `json:"name" db:"name"`
	IsFolder      bool      `json:"is_folder" db:"is_folder"`
	Path          *string   `json:"path" db:"path"` // blob locator, NULL iff folder
	MimeType      *string   `json:"mime_type" db:"mime_type"`
	Size          int64     `json:"size" db:"size"`
	ExtractedText *string   `json:"extracted_text" db:"extracted_text"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Breadcrumb is one ancestor entry on the path from the root down to a
// folder, in root-first order.
type Breadcrumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Listing is the response shape of the tree listing endpoint.
type Listing struct {
	Files       []Node       `json:"files"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
}

type CreateFolderRequest struct {
	ParentID *string `json:"parent_id,omitempty"`
	Name     string  `json:"name"`
}
