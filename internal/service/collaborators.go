package service

import "github.com/logan676/bookpost-sub002/internal/models"

// BookInfo is what the catalog collaborator knows about a readable item.
type BookInfo struct {
	Ref      models.BookRef
	Title    string
	Category string
}

// BookCatalog resolves book references. Owned by the catalog side of
// the platform; the engine only consumes it. A nil result with nil
// error means the reference does not exist.
type BookCatalog interface {
	ResolveBook(ref models.BookRef) (*BookInfo, error)
}

// SocialGraph scopes leaderboards to the followed-user set. Owned by
// the social side of the platform.
type SocialGraph interface {
	GetFollowing(userID uint) ([]uint, error)
}
