package model

// Bookmarks store a saved viewport (pan/zoom) as retrieved from the slide
// viewer's getCenter()/getZoom(), keyed by a human readable label.

// swagger:model CaseBookmark
type CaseBookmark struct {
	BaseModel
	CaseID  uint    `gorm:"index;not null" json:"caseId"`
	SlideID uint    `gorm:"not null" json:"slideId"`
	Text    string  `gorm:"size:50;not null" json:"text"`
	CenterX float64 `gorm:"default:0" json:"centerX"`
	CenterY float64 `gorm:"default:0" json:"centerY"`
	Zoom    float64 `gorm:"default:1" json:"zoom"`
	Order   int     `gorm:"column:order;default:0" json:"order"`
}

func (CaseBookmark) TableName() string {
	return "case_bookmarks"
}

// swagger:model QuestionBookmark
type QuestionBookmark struct {
	BaseModel
	QuestionID uint    `gorm:"index;not null" json:"questionId"`
	SlideID    uint    `gorm:"not null" json:"slideId"`
	Text       string  `gorm:"size:50;not null" json:"text"`
	CenterX    float64 `gorm:"default:0" json:"centerX"`
	CenterY    float64 `gorm:"default:0" json:"centerY"`
	Zoom       float64 `gorm:"default:1" json:"zoom"`
	Order      int     `gorm:"column:order;default:0" json:"order"`
}

func (QuestionBookmark) TableName() string {
	return "question_bookmarks"
}

// BookmarkRef is the read-only (id, label) pair exposed alongside remark
// questions for client side display.
type BookmarkRef struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}
