package domain

import "strings"

// DocumentRef identifies a document on the CAD service. Immutable once
// obtained; owned by the caller for the duration of one pipeline invocation.
type DocumentRef struct {
	ID   string
	Name string
}

// WorkspaceRef identifies a workspace within a document. Resolved fresh on
// every pipeline run; never cached across runs.
type WorkspaceRef struct {
	ID        string
	IsDefault bool
}

// ElementRef identifies a part-studio element. An ElementRef is only valid
// paired with the document that produced it.
type ElementRef struct {
	ID         string
	Name       string
	DocumentID string
}

// BelongsTo reports whether the element was produced by the given document.
func (e ElementRef) BelongsTo(documentID string) bool {
	return strings.TrimSpace(e.ID) != "" && e.DocumentID == documentID
}

// PlaneSelection is the caller's raw, possibly partial plane choice before
// resolution. Either field may be empty.
type PlaneSelection struct {
	ID   string
	Name string
}

// IsZero reports whether no selection was supplied at all.
func (s PlaneSelection) IsZero() bool {
	return strings.TrimSpace(s.ID) == "" && strings.TrimSpace(s.Name) == ""
}

// SelectionSnapshot is the caller's current selection captured by value at
// pipeline start. A run reads it exactly once; selection changes made while
// the run is in flight affect only subsequent runs.
type SelectionSnapshot struct {
	Document     *DocumentRef
	DocumentName string
	WorkspaceID  string
	Element      *ElementRef
	Plane        *PlaneSelection
}
