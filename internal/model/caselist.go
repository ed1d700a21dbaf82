package model

import (
	"time"
)

type CaseListType string

const (
	ObserverVariability CaseListType = "O"
	CaseReport          CaseListType = "C"
	Examination         CaseListType = "E"
	ShowCase            CaseListType = "S"
)

// swagger:model CaseList
type CaseList struct {
	BaseModel
	Name             string       `gorm:"size:50;not null" json:"name"`
	Slug             string       `gorm:"size:60;uniqueIndex;not null" json:"slug"`
	Abstract         string       `gorm:"type:text" json:"abstract"`    // markdown
	Description      string       `gorm:"type:text" json:"description"` // markdown
	InviteMail       string       `gorm:"type:text" json:"inviteMail"`
	WelcomeMail      string       `gorm:"type:text" json:"welcomeMail"`
	ReminderMail     string       `gorm:"type:text" json:"reminderMail"`
	Type             CaseListType `gorm:"size:1;not null" json:"type"`
	ObserversPerCase uint         `gorm:"default:0" json:"observersPerCase"` // 0 = every observer sees every case
	OwnerID          uint         `gorm:"index;not null" json:"ownerId"`
	Owner            *User        `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	VisibleForNonUsers  bool      `gorm:"default:false" json:"visibleForNonUsers"`
	OpenForRegistration bool      `gorm:"default:false" json:"openForRegistration"`
	SelfRegistration    bool      `gorm:"default:false" json:"selfRegistration"`
	StartDate        time.Time    `json:"startDate"`
	EndDate          *time.Time   `json:"endDate,omitempty"`
	Status           string       `gorm:"size:10" json:"status"`
}

func (CaseList) TableName() string {
	return "case_lists"
}

// IsActive reports whether the list is still accepting submissions.
func (cl *CaseList) IsActive() bool {
	return cl.EndDate == nil || cl.EndDate.After(time.Now())
}

type UserCaseListStatus string

const (
	MemberActive   UserCaseListStatus = "A"
	MemberPending  UserCaseListStatus = "P"
	MemberComplete UserCaseListStatus = "C"
	// MemberNone is synthetic, returned when no membership record exists.
	MemberNone UserCaseListStatus = "N"
)

// swagger:model UserCaseList
type UserCaseList struct {
	BaseModel
	UserID     uint               `gorm:"index;not null" json:"userId"`
	User       *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CaseListID uint               `gorm:"index;not null" json:"caseListId"`
	CaseList   *CaseList          `gorm:"foreignKey:CaseListID" json:"caseList,omitempty"`
	Status     UserCaseListStatus `gorm:"size:1;default:'A'" json:"status"`
	StartTime  time.Time          `json:"startTime"`
	EndTime    *time.Time         `json:"endTime,omitempty"`
}

func (UserCaseList) TableName() string {
	return "user_case_lists"
}

// CaseListInvitation links an invitation key to the caselist the invitee
// should become a member of once the key is accepted.
type CaseListInvitation struct {
	BaseModel
	CaseListID uint      `gorm:"index;not null" json:"caseListId"`
	CaseList   *CaseList `gorm:"foreignKey:CaseListID" json:"caseList,omitempty"`
	Key        string    `gorm:"size:36;uniqueIndex;not null" json:"key"`
	Email      string    `gorm:"size:100" json:"email"`
	AcceptedBy uint      `gorm:"default:0" json:"acceptedBy"`
}

func (CaseListInvitation) TableName() string {
	return "case_list_invitations"
}
