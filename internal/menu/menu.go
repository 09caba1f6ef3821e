package menu

import (
	"github.com/aliskhannn/image-converter/internal/model"
)

// Menu entry identifiers.
const (
	ParentID             = "imageConverter"
	DownloadID           = "download"
	DownloadCompressedID = "downloadCompressed"

	// Legacy entries: fixed png output.
	DownloadAsPNGID           = "downloadAsPng"
	DownloadAsCompressedPNGID = "downloadAsCompressedPng"
)

// ContextImage limits an entry to image elements.
const ContextImage = "image"

// Action is what an entry does when clicked.
type Action struct {
	Mode   model.ResizeMode
	Format model.Format // empty means the format from the settings
}

// Entry is a static context-menu entry.
type Entry struct {
	ID       string
	ParentID string
	TitleKey string
	Contexts []string
	Action   *Action // nil for the parent entry
}

// Menu holds the registered entries.
type Menu struct {
	entries []Entry
	byID    map[string]Entry
}

// New registers the parent entry and its children.
// legacy adds the png-only entries of the first release.
func New(legacy bool) *Menu {
	entries := []Entry{
		{ID: ParentID, TitleKey: keyMenuTitle},
		{
			ID:       DownloadID,
			ParentID: ParentID,
			TitleKey: keyDownload,
			Action:   &Action{Mode: model.ResizeNone},
		},
		{
			ID:       DownloadCompressedID,
			ParentID: ParentID,
			TitleKey: keyDownloadCompressed,
			Action:   &Action{Mode: model.ResizeRatio},
		},
	}

	if legacy {
		entries = append(entries,
			Entry{
				ID:       DownloadAsPNGID,
				ParentID: ParentID,
				TitleKey: keyDownloadPNG,
				Action:   &Action{Mode: model.ResizeNone, Format: model.FormatPNG},
			},
			Entry{
				ID:       DownloadAsCompressedPNGID,
				ParentID: ParentID,
				TitleKey: keyDownloadCompressedPNG,
				Action:   &Action{Mode: model.ResizeMaxDimension, Format: model.FormatPNG},
			},
		)
	}

	m := &Menu{byID: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		e.Contexts = []string{ContextImage}
		m.entries = append(m.entries, e)
		m.byID[e.ID] = e
	}

	return m
}

// Entries returns the entries in registration order.
func (m *Menu) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Resolve finds the clickable entry with exactly this id.
func (m *Menu) Resolve(id string) (Entry, bool) {
	e, ok := m.byID[id]
	if !ok || e.Action == nil {
		return Entry{}, false
	}

	return e, true
}
