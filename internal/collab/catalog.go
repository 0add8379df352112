// Package collab holds thin adapters over the tables owned by the rest
// of the platform (catalog CRUD, social graph). The engine consumes
// them through the interfaces in internal/service and never writes to
// these tables.
package collab

import (
	"errors"

	"github.com/logan676/bookpost-sub002/internal/models"
	"github.com/logan676/bookpost-sub002/internal/service"
	"gorm.io/gorm"
)

type catalogRow struct {
	ID       uint
	Title    string
	Category string
}

// DBCatalog resolves book references against the catalog tables.
type DBCatalog struct {
	db *gorm.DB
}

func NewDBCatalog(db *gorm.DB) *DBCatalog {
	return &DBCatalog{db: db}
}

func (c *DBCatalog) ResolveBook(ref models.BookRef) (*service.BookInfo, error) {
	var table string
	switch ref.Kind {
	case models.KindEbook:
		table = "ebooks"
	case models.KindMagazine:
		table = "magazines"
	case models.KindAudiobook:
		table = "audiobooks"
	default:
		return nil, nil
	}

	var row catalogRow
	err := c.db.Table(table).
		Select("id, title, category").
		Where("id = ?", ref.ID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &service.BookInfo{Ref: ref, Title: row.Title, Category: row.Category}, nil
}
