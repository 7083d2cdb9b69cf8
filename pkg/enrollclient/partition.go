package enrollclient

import (
	"strconv"
	"time"
)

// Anchor is an entity a dialog can be opened for.
type Anchor struct {
	ID     int64
	Label  string
	Detail string
}

// Entry is one target row in a partition view. Provisional entries were added
// optimistically and have not been confirmed by the server yet.
type Entry struct {
	Key         string
	ID          int64
	Label       string
	Detail      string
	EnrolledAt  *time.Time
	Provisional bool
}

// Partition is the enrolled/unenrolled view of targets for one anchor.
type Partition struct {
	AnchorID   int64
	Enrolled   []Entry
	Unenrolled []Entry
}

func (p *Partition) clone() *Partition {
	if p == nil {
		return nil
	}
	out := &Partition{
		AnchorID:   p.AnchorID,
		Enrolled:   make([]Entry, len(p.Enrolled)),
		Unenrolled: make([]Entry, len(p.Unenrolled)),
	}
	copy(out.Enrolled, p.Enrolled)
	copy(out.Unenrolled, p.Unenrolled)
	return out
}

// EnrolledIDs lists the enrolled target ids in view order.
func (p *Partition) EnrolledIDs() []int64 {
	return entryIDs(p.Enrolled)
}

// UnenrolledIDs lists the unenrolled target ids in view order.
func (p *Partition) UnenrolledIDs() []int64 {
	return entryIDs(p.Unenrolled)
}

func entryIDs(entries []Entry) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func indexOf(entries []Entry, id int64) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func confirmedEntry(id int64, label, detail string, enrolledAt *time.Time) Entry {
	return Entry{Key: strconv.FormatInt(id, 10), ID: id, Label: label, Detail: detail, EnrolledAt: enrolledAt}
}
