package models

import "time"

// Entry is one headline taken from a feed
type Entry struct {
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
	Source string `json:"source,omitempty"`
}

// Reason names why a section or source produced no data.
// The zero value means the data is present.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonUnreachable Reason = "unreachable"
	ReasonTimeout     Reason = "timeout"
	ReasonBadStatus   Reason = "bad_status"
	ReasonMalformed   Reason = "malformed"
	ReasonEmpty       Reason = "empty"
	ReasonDisabled    Reason = "disabled"
)

// Section is the outcome of one digest section fetch
type Section struct {
	Name  string `json:"name"`
	Title string `json:"title"`

	// Entries is used by list sections such as headlines
	Entries []Entry `json:"entries,omitempty"`

	// Lines is used by free text sections such as weather or market quotes
	Lines []string `json:"lines,omitempty"`

	Reason Reason `json:"reason,omitempty"`
	Err    error  `json:"-"`
}

// OK reports whether the section holds data
func (s Section) OK() bool {
	return s.Reason == ReasonNone
}

// Placeholder is the fixed text rendered in place of a failed section
func (s Section) Placeholder() string {
	return s.Title + " unavailable."
}

// Failed builds a section carrying a failure reason
func Failed(name, title string, reason Reason, err error) Section {
	return Section{
		Name:   name,
		Title:  title,
		Reason: reason,
		Err:    err,
	}
}

// LongDateLayout is how digests show their date, e.g. "Friday, March 01, 2024"
const LongDateLayout = "Monday, January 02, 2006"

// Digest is the rendered aggregate for a single run
type Digest struct {
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Sections []Section `json:"sections"`
}

// DigestFile describes a digest written to disk
type DigestFile struct {
	Name    string    `json:"name"`
	Date    string    `json:"date"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}
