package topic

import "time"

// TopicDescriptor is the catalog record of a created topic. Depth is only
// filled in for live topics and never persisted.
type TopicDescriptor struct {
	Name      string    `json:"name" bson:"_id" gorm:"primaryKey;size:255"`
	Capacity  int       `json:"capacity" bson:"capacity"`
	Port      int       `json:"port" bson:"port"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	Depth     int       `json:"depth" bson:"-" gorm:"-"`
}

func (TopicDescriptor) TableName() string {
	return "portq_topics"
}
