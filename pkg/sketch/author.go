package sketch

import "github.com/google/uuid"

// Author describes who drew a stroke.
type Author struct {
	ID          uuid.UUID
	Description string
	DpiX        float64
	DpiY        float64
}

// NewAuthor returns an author with a fresh UID.
func NewAuthor(description string) *Author {
	return &Author{ID: newID(), Description: description}
}

// Clone returns an independent copy with the same UID.
func (a *Author) Clone() *Author {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Pen describes the input device used for a stroke.
type Pen struct {
	ID          uuid.UUID
	PenID       string
	Brand       string
	Description string
}

// NewPen returns a pen with a fresh UID.
func NewPen(penID string) *Pen {
	return &Pen{ID: newID(), PenID: penID}
}

// Clone returns an independent copy with the same UID.
func (p *Pen) Clone() *Pen {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Speech is recorded audio metadata attached to a sketch. Only the
// descriptor is kept; audio data lives at Path.
type Speech struct {
	ID          uuid.UUID
	Description string
	Path        string
	StartTime   int64
	StopTime    int64
}

// NewSpeech returns a speech descriptor with a fresh UID.
func NewSpeech(path string, start, stop int64) *Speech {
	return &Speech{ID: newID(), Path: path, StartTime: start, StopTime: stop}
}

// Duration returns StopTime - StartTime.
func (s *Speech) Duration() int64 {
	return s.StopTime - s.StartTime
}

// Clone returns an independent copy with the same UID.
func (s *Speech) Clone() *Speech {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
