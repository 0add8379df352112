package models

import "fmt"

type BookKind string

const (
	KindEbook     BookKind = "ebook"
	KindMagazine  BookKind = "magazine"
	KindAudiobook BookKind = "audiobook"
)

// BookRef identifies a readable item across the polymorphic catalogs.
// Kind and ID always travel together so the aggregator and catalog
// resolver can switch exhaustively instead of guessing from context.
type BookRef struct {
	Kind BookKind `json:"kind"`
	ID   uint     `json:"id"`
}

func (r BookRef) Valid() bool {
	switch r.Kind {
	case KindEbook, KindMagazine, KindAudiobook:
		return r.ID != 0
	}
	return false
}

// Key returns the map key used in DailyReadingStat.BookDurations.
func (r BookRef) Key() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

func ParseBookKind(s string) (BookKind, bool) {
	switch BookKind(s) {
	case KindEbook, KindMagazine, KindAudiobook:
		return BookKind(s), true
	}
	return "", false
}
