package model

// swagger:model Case
type Case struct {
	BaseModel
	CaseListID   uint      `gorm:"index;not null" json:"caseListId"`
	CaseList     *CaseList `gorm:"foreignKey:CaseListID" json:"caseList,omitempty"`
	Name         string    `gorm:"size:50;not null" json:"name"`
	Order        int       `gorm:"column:order;default:0" json:"order"`
	Introduction string    `gorm:"type:text" json:"introduction"`
	// Report holds the reference answer text shown after an examination
	// submission. Empty means no self-evaluation step.
	Report string `gorm:"type:text" json:"report"`

	Slides    []CaseSlide `gorm:"foreignKey:CaseID" json:"slides,omitempty"`
	Questions []Question  `gorm:"foreignKey:CaseID" json:"questions,omitempty"`
}

func (Case) TableName() string {
	return "cases"
}

// CaseSlide is the ordered link between a case and an externally hosted
// slide. SlideID is an opaque reference resolved by the image tile viewer.
type CaseSlide struct {
	BaseModel
	CaseID  uint `gorm:"index;not null" json:"caseId"`
	SlideID uint `gorm:"index;not null" json:"slideId"`
	Order   int  `gorm:"column:order;default:0" json:"order"`
}

func (CaseSlide) TableName() string {
	return "case_slides"
}
