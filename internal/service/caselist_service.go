package service

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"slidereview_backend/internal/model"
	"slidereview_backend/internal/repository"
	"slidereview_backend/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CaseListService owns case list lifecycle, membership and the case
// assignment scheduler.
type CaseListService struct {
	CaseLists *repository.CaseListRepository
	Cases     *repository.CaseRepository
	Instances *repository.InstanceRepository
	Users     *repository.UserRepository
	Mail      *MailService
	DB        *gorm.DB
}

func NewCaseListService(caseLists *repository.CaseListRepository, cases *repository.CaseRepository,
	instances *repository.InstanceRepository, users *repository.UserRepository, mail *MailService, db *gorm.DB) *CaseListService {
	return &CaseListService{CaseLists: caseLists, Cases: cases, Instances: instances, Users: users, Mail: mail, DB: db}
}

type CaseListRequest struct {
	Name                string             `json:"name" binding:"required"`
	Abstract            string             `json:"abstract"`
	Description         string             `json:"description"`
	InviteMail          string             `json:"inviteMail"`
	WelcomeMail         string             `json:"welcomeMail"`
	ReminderMail        string             `json:"reminderMail"`
	Type                model.CaseListType `json:"type" binding:"required"`
	ObserversPerCase    uint               `json:"observersPerCase"`
	VisibleForNonUsers  bool               `json:"visibleForNonUsers"`
	OpenForRegistration bool               `json:"openForRegistration"`
	SelfRegistration    bool               `json:"selfRegistration"`
	EndDate             *time.Time         `json:"endDate"`
}

// Create stores a new case list and, in the same transaction, the owner's
// active membership. Membership creation is an explicit call here, not a
// persistence hook.
func (s *CaseListService) Create(ownerID uint, req CaseListRequest) (*model.CaseList, error) {
	cl := &model.CaseList{
		Name:                req.Name,
		Abstract:            req.Abstract,
		Description:         req.Description,
		InviteMail:          req.InviteMail,
		WelcomeMail:         req.WelcomeMail,
		ReminderMail:        req.ReminderMail,
		Type:                req.Type,
		ObserversPerCase:    req.ObserversPerCase,
		OwnerID:             ownerID,
		VisibleForNonUsers:  req.VisibleForNonUsers,
		OpenForRegistration: req.OpenForRegistration,
		SelfRegistration:    req.SelfRegistration,
		StartDate:           time.Now(),
		EndDate:             req.EndDate,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		cl.Slug = s.uniqueSlug(tx, cl.Name)
		if err := tx.Create(cl).Error; err != nil {
			return err
		}
		membership := &model.UserCaseList{
			UserID:     ownerID,
			CaseListID: cl.ID,
			Status:     model.MemberActive,
			StartTime:  time.Now(),
		}
		return tx.Create(membership).Error
	})
	if err != nil {
		return nil, err
	}
	return cl, nil
}

func (s *CaseListService) uniqueSlug(tx *gorm.DB, name string) string {
	base := util.Slugify(name)
	if base == "" {
		// Names without ASCII alphanumerics slugify to nothing; an empty
		// slug would make the list unreachable by URL.
		base = "list-" + uuid.New().String()[:8]
	}
	slug := base
	for n := 2; ; n++ {
		var count int64
		tx.Model(&model.CaseList{}).Where("slug = ?", slug).Count(&count)
		if count == 0 {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *CaseListService) Update(cl *model.CaseList, req CaseListRequest) error {
	cl.Name = req.Name
	cl.Abstract = req.Abstract
	cl.Description = req.Description
	cl.InviteMail = req.InviteMail
	cl.WelcomeMail = req.WelcomeMail
	cl.ReminderMail = req.ReminderMail
	cl.Type = req.Type
	cl.ObserversPerCase = req.ObserversPerCase
	cl.VisibleForNonUsers = req.VisibleForNonUsers
	cl.OpenForRegistration = req.OpenForRegistration
	cl.SelfRegistration = req.SelfRegistration
	cl.EndDate = req.EndDate
	return s.CaseLists.Save(cl)
}

// MembershipStatus returns the observer's status, MemberNone when no record
// exists.
func (s *CaseListService) MembershipStatus(userID, caseListID uint) model.UserCaseListStatus {
	ucl, err := s.CaseLists.FindMembership(userID, caseListID)
	if err != nil {
		return model.MemberNone
	}
	return ucl.Status
}

// IsAdmin reports whether the user administers the case list: its owner or
// site staff.
func (s *CaseListService) IsAdmin(userID uint, isStaff bool, cl *model.CaseList) bool {
	return isStaff || cl.OwnerID == userID
}

// Apply registers the requesting observer on an open case list. With
// SelfRegistration the membership is active at once, otherwise it awaits
// owner approval.
func (s *CaseListService) Apply(userID uint, cl *model.CaseList) (*model.UserCaseList, error) {
	if s.MembershipStatus(userID, cl.ID) != model.MemberNone {
		return nil, util.ErrMembershipExists
	}
	if !cl.IsActive() {
		return nil, util.ErrCaseListClosed
	}
	if !cl.OpenForRegistration {
		return nil, util.ErrPermissionDenied
	}
	status := model.MemberPending
	if cl.SelfRegistration {
		status = model.MemberActive
	}
	ucl := &model.UserCaseList{UserID: userID, CaseListID: cl.ID, Status: status, StartTime: time.Now()}
	if err := s.CaseLists.CreateMembership(ucl); err != nil {
		return nil, err
	}
	return ucl, nil
}

// EnsureActiveMembership get-or-creates an active membership; used for
// anonymous observers entering a publicly visible list.
func (s *CaseListService) EnsureActiveMembership(userID uint, cl *model.CaseList) error {
	if s.MembershipStatus(userID, cl.ID) == model.MemberActive {
		return nil
	}
	ucl, err := s.CaseLists.FindMembership(userID, cl.ID)
	if err == nil {
		ucl.Status = model.MemberActive
		return s.CaseLists.SaveMembership(ucl)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.CaseLists.CreateMembership(&model.UserCaseList{
		UserID: userID, CaseListID: cl.ID, Status: model.MemberActive, StartTime: time.Now(),
	})
}

// ActivateMember approves a pending membership and sends the welcome mail.
func (s *CaseListService) ActivateMember(membershipID uint) error {
	ucl, err := s.CaseLists.FindMembershipByID(membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotMember
		}
		return err
	}
	if ucl.Status != model.MemberPending {
		return nil
	}
	ucl.Status = model.MemberActive
	if err := s.CaseLists.SaveMembership(ucl); err != nil {
		return err
	}
	s.Mail.SendMembershipMail(ucl, MailWelcome)
	return nil
}

// SendReminder mails an active member their reminder template.
func (s *CaseListService) SendReminder(membershipID uint) error {
	ucl, err := s.CaseLists.FindMembershipByID(membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotMember
		}
		return err
	}
	if ucl.Status != model.MemberActive {
		return nil
	}
	s.Mail.SendMembershipMail(ucl, MailReminder)
	return nil
}

// DeleteInactiveAnonymous removes anonymous memberships that never
// completed a case.
func (s *CaseListService) DeleteInactiveAnonymous(cl *model.CaseList) error {
	members, err := s.CaseLists.ListAnonymousMembers(cl.ID)
	if err != nil {
		return err
	}
	caseIDs, err := s.Cases.CaseIDs(cl.ID)
	if err != nil {
		return err
	}
	for _, m := range members {
		completed, err := s.Instances.CaseIDsByUserStatus(m.UserID, caseIDs, model.InstanceEnded)
		if err != nil {
			return err
		}
		if len(completed) == 0 {
			if err := s.CaseLists.DeleteMembership(m.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// CaseCounts are the derived per-observer progress numbers; they are pure
// functions of the instance records, never stored.
type CaseCounts struct {
	Completed      []uint `json:"completed"`
	CountCompleted int    `json:"countCompleted"`
	CountSkipped   int    `json:"countSkipped"`
	CountTodo      int    `json:"countTodo"`
	CountTotal     int    `json:"countTotal"`
}

func (s *CaseListService) Counts(cl *model.CaseList, userID uint) (*CaseCounts, error) {
	caseIDs, err := s.Cases.CaseIDs(cl.ID)
	if err != nil {
		return nil, err
	}
	completed, err := s.Instances.CaseIDsByUserStatus(userID, caseIDs, model.InstanceEnded)
	if err != nil {
		return nil, err
	}
	skipped, err := s.Instances.CaseIDsByUserStatus(userID, caseIDs, model.InstanceSkipped)
	if err != nil {
		return nil, err
	}
	counts := &CaseCounts{
		Completed:      completed,
		CountCompleted: len(completed),
		CountSkipped:   len(skipped),
		// Skipped cases do not count toward an observer's total.
		CountTotal: len(caseIDs) - len(skipped),
		CountTodo:  len(caseIDs) - len(skipped) - len(completed),
	}
	return counts, nil
}

// Evaluation summarizes an observer's graded answers across all Ended
// instances of the list as "<correct> of <graded>", or "" when no question
// with a configured correct answer has been answered yet.
func (s *CaseListService) Evaluation(cl *model.CaseList, userID uint) (string, error) {
	caseIDs, err := s.Cases.CaseIDs(cl.ID)
	if err != nil || len(caseIDs) == 0 {
		return "", err
	}
	instances, err := s.Instances.ListByUserAndCases(userID, caseIDs)
	if err != nil {
		return "", err
	}
	instanceIDs := make([]uint, 0, len(instances))
	for _, ci := range instances {
		if ci.Status == model.InstanceEnded {
			instanceIDs = append(instanceIDs, ci.ID)
		}
	}
	answers, err := s.Instances.ListAnswersByInstances(instanceIDs)
	if err != nil {
		return "", err
	}
	graded, correct := 0, 0
	for i := range answers {
		if answers[i].Question == nil {
			continue
		}
		switch answers[i].Grade(answers[i].Question) {
		case model.GradeCorrect:
			graded++
			correct++
		case model.GradeError:
			graded++
		}
	}
	if graded == 0 {
		return "", nil
	}
	return fmt.Sprintf("%d of %d", correct, graded), nil
}

// NextCase selects the next case to serve the observer, or ok=false when
// the list is exhausted for them. With an unlimited quota cases are served
// in manual order; observer variability lists randomize among order ties to
// spread exposure order across observers. With a positive quota the least
// observed cases come first, load balancing coverage instead.
func (s *CaseListService) NextCase(cl *model.CaseList, userID uint) (uint, bool, error) {
	candidates, err := s.Cases.CandidatesFor(cl.ID, userID)
	if err != nil {
		return 0, false, err
	}
	if len(candidates) == 0 {
		return 0, false, nil
	}

	if cl.ObserversPerCase == 0 {
		minOrder := candidates[0].Order
		tied := make([]model.Case, 0, len(candidates))
		for _, c := range candidates {
			if c.Order == minOrder {
				tied = append(tied, c)
			}
		}
		if cl.Type == model.ObserverVariability {
			return tied[rand.Intn(len(tied))].ID, true, nil
		}
		// Candidates arrive ordered by (order, id); first match keeps
		// the sequence identical for every observer.
		return tied[0].ID, true, nil
	}

	ids := make([]uint, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	counts, err := s.Instances.CountEndedByCase(ids)
	if err != nil {
		return 0, false, err
	}
	minCount := counts[candidates[0].ID]
	for _, c := range candidates[1:] {
		if counts[c.ID] < minCount {
			minCount = counts[c.ID]
		}
	}
	least := make([]model.Case, 0, len(candidates))
	for _, c := range candidates {
		if counts[c.ID] == minCount {
			least = append(least, c)
		}
	}
	return least[rand.Intn(len(least))].ID, true, nil
}

// Invitations

// Invite creates an invitation key for the case list and mails it when the
// invitee address is known.
func (s *CaseListService) Invite(cl *model.CaseList, email, key string) (*model.CaseListInvitation, error) {
	inv := &model.CaseListInvitation{CaseListID: cl.ID, Key: key, Email: email}
	if err := s.CaseLists.CreateInvitation(inv); err != nil {
		return nil, err
	}
	inv.CaseList = cl
	s.Mail.SendInvitationMail(inv)
	return inv, nil
}

// AcceptInvitation turns a valid key into an active membership for the
// accepting observer and sends the welcome mail. Explicit service call, no
// persistence signal involved.
func (s *CaseListService) AcceptInvitation(key string, userID uint) (*model.UserCaseList, error) {
	inv, err := s.CaseLists.FindInvitationByKey(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if inv.AcceptedBy != 0 && inv.AcceptedBy != userID {
		return nil, util.ErrInvitationUsed
	}

	ucl, err := s.CaseLists.FindMembership(userID, inv.CaseListID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ucl = &model.UserCaseList{
			UserID: userID, CaseListID: inv.CaseListID,
			Status: model.MemberActive, StartTime: time.Now(),
		}
		if err := s.CaseLists.CreateMembership(ucl); err != nil {
			return nil, err
		}
		ucl.CaseList = inv.CaseList
		s.Mail.SendMembershipMail(ucl, MailWelcome)
	} else if err != nil {
		return nil, err
	}

	inv.AcceptedBy = userID
	if err := s.CaseLists.SaveInvitation(inv); err != nil {
		return nil, err
	}
	return ucl, nil
}
