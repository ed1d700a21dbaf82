package repository

import (
	"slidereview_backend/internal/model"

	"gorm.io/gorm"
)

type InstanceRepository struct {
	DB *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{DB: db}
}

func (r *InstanceRepository) Create(ci *model.CaseInstance) error {
	return r.DB.Create(ci).Error
}

func (r *InstanceRepository) Save(ci *model.CaseInstance) error {
	return r.DB.Save(ci).Error
}

func (r *InstanceRepository) FindByID(id uint) (*model.CaseInstance, error) {
	var ci model.CaseInstance
	err := r.DB.First(&ci, id).Error
	return &ci, err
}

// FindByCaseAndUser returns "the" instance for an observer's attempt; the
// logical key is (case, user).
func (r *InstanceRepository) FindByCaseAndUser(caseID, userID uint) (*model.CaseInstance, error) {
	var ci model.CaseInstance
	err := r.DB.Where("case_id = ? AND user_id = ?", caseID, userID).First(&ci).Error
	return &ci, err
}

func (r *InstanceRepository) ListByUserAndCases(userID uint, caseIDs []uint) ([]model.CaseInstance, error) {
	var cis []model.CaseInstance
	err := r.DB.Where("user_id = ? AND case_id IN ?", userID, caseIDs).Find(&cis).Error
	return cis, err
}

// CaseIDsByUserStatus returns the cases in the given set that the observer
// has an instance with the given status for.
func (r *InstanceRepository) CaseIDsByUserStatus(userID uint, caseIDs []uint, status model.CaseInstanceStatus) ([]uint, error) {
	if len(caseIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.DB.Model(&model.CaseInstance{}).
		Where("user_id = ? AND status = ? AND case_id IN ?", userID, status, caseIDs).
		Pluck("case_id", &ids).Error
	return ids, err
}

// CountEndedByCase returns the number of Ended instances per case across all
// observers, keyed by case id. Cases without instances are absent.
func (r *InstanceRepository) CountEndedByCase(caseIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64)
	if len(caseIDs) == 0 {
		return counts, nil
	}
	type row struct {
		CaseID uint
		N      int64
	}
	var rows []row
	err := r.DB.Model(&model.CaseInstance{}).
		Select("case_id, COUNT(*) as n").
		Where("case_id IN ? AND status = ?", caseIDs, model.InstanceEnded).
		Group("case_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.CaseID] = r.N
	}
	return counts, nil
}

func (r *InstanceRepository) Delete(id uint) error {
	return r.DB.Delete(&model.CaseInstance{}, id).Error
}

// Answers

func (r *InstanceRepository) FindAnswer(instanceID, questionID uint) (*model.Answer, error) {
	var a model.Answer
	err := r.DB.Where("case_instance_id = ? AND question_id = ?", instanceID, questionID).First(&a).Error
	return &a, err
}

func (r *InstanceRepository) ListAnswers(instanceID uint) ([]model.Answer, error) {
	var as []model.Answer
	err := r.DB.Preload("Annotation").Where("case_instance_id = ?", instanceID).Find(&as).Error
	return as, err
}

// ListAnswersByQuestion collects every observer's answer to one question,
// with annotation side records preloaded.
func (r *InstanceRepository) ListAnswersByQuestion(questionID uint) ([]model.Answer, error) {
	var as []model.Answer
	err := r.DB.Preload("Annotation").Where("question_id = ?", questionID).Find(&as).Error
	return as, err
}

func (r *InstanceRepository) ListAnswersByInstances(instanceIDs []uint) ([]model.Answer, error) {
	if len(instanceIDs) == 0 {
		return nil, nil
	}
	var as []model.Answer
	err := r.DB.Preload("Question").Where("case_instance_id IN ?", instanceIDs).Find(&as).Error
	return as, err
}
