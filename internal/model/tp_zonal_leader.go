package model

// ZonalLeader a lecturer reviewing the letters of one zone (tp_zonal_leaders)
type ZonalLeader struct {
	ZonalLeaderID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                        json:"zonal_leader_id"`
	ZoneName      string `gorm:"type:varchar(100);not null;uniqueIndex:uk_zonal_leaders_zone_assessor" json:"zone_name"`
	AssessorID    string `gorm:"type:uuid;not null;uniqueIndex:uk_zonal_leaders_zone_assessor"         json:"assessor_id"`
	BaseModel

	Assessor *User `gorm:"foreignKey:AssessorID;references:UserID" json:"assessor,omitempty"`
}

// TableName table name
func (ZonalLeader) TableName() string { return "tp_zonal_leaders" }
