package collab

import "gorm.io/gorm"

// DBSocialGraph reads the follow edges maintained by the social CRUD
// layer.
type DBSocialGraph struct {
	db *gorm.DB
}

func NewDBSocialGraph(db *gorm.DB) *DBSocialGraph {
	return &DBSocialGraph{db: db}
}

func (g *DBSocialGraph) GetFollowing(userID uint) ([]uint, error) {
	var ids []uint
	err := g.db.Table("user_follows").
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	return ids, err
}
