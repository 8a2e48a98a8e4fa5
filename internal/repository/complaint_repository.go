package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/civicfix/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplaintRepository interface {
	// Complaint CRUD
	Create(ctx context.Context, complaint *models.Complaint) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]models.Complaint, error)
	ListByDepartment(ctx context.Context, department string) ([]models.Complaint, error)
	Update(ctx context.Context, complaint *models.Complaint) error
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error

	// Complaint number generation
	GenerateComplaintNumber(ctx context.Context) (string, error)

	// History
	AppendHistory(ctx context.Context, entry *models.ComplaintHistory) error
	ListHistory(ctx context.Context, complaintID uuid.UUID) ([]models.ComplaintHistory, error)

	// Escalation
	ListForEscalation(ctx context.Context, olderThan time.Time) ([]models.Complaint, error)

	// Stats
	GetStats(ctx context.Context, department string) (*models.ComplaintStatsResponse, error)
}

type complaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &complaintRepository{db: db}
}

// Complaint CRUD

func (r *complaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Create(complaint).Error
}

func (r *complaintRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.WithContext(ctx).
		Preload("Reporter").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&complaint, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := r.db.WithContext(ctx).
		Where("reporter_id = ?", reporterID).
		Order("created_at DESC").
		Find(&complaints).Error
	return complaints, err
}

func (r *complaintRepository) ListByDepartment(ctx context.Context, department string) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := r.db.WithContext(ctx).
		Preload("Reporter").
		Where("department = ?", department).
		Order("created_at DESC").
		Find(&complaints).Error
	return complaints, err
}

func (r *complaintRepository) Update(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Save(complaint).Error
}

func (r *complaintRepository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Complaint{}).Where("id = ?", id).Updates(updates).Error
}

// Complaint number generation

func (r *complaintRepository) GenerateComplaintNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Complaint{}).
		Where("EXTRACT(YEAR FROM created_at) = ?", year).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CMP-%d-%06d", year, count+1), nil
}

// History

func (r *complaintRepository) AppendHistory(ctx context.Context, entry *models.ComplaintHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *complaintRepository) ListHistory(ctx context.Context, complaintID uuid.UUID) ([]models.ComplaintHistory, error) {
	var history []models.ComplaintHistory
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC").
		Find(&history).Error
	return history, err
}

// Escalation

// ListForEscalation returns unresolved, not-yet-escalated complaints
// created before the cutoff. Already escalated rows are excluded, which is
// what makes the sweep idempotent.
func (r *complaintRepository) ListForEscalation(ctx context.Context, olderThan time.Time) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := r.db.WithContext(ctx).
		Where("status <> ?", models.StatusResolved).
		Where("escalated = ?", false).
		Where("created_at < ?", olderThan).
		Order("created_at ASC").
		Find(&complaints).Error
	return complaints, err
}

// Stats

func (r *complaintRepository) GetStats(ctx context.Context, department string) (*models.ComplaintStatsResponse, error) {
	stats := &models.ComplaintStatsResponse{
		ByStatus: make(map[models.ComplaintStatus]int64),
		ByType:   make(map[string]int64),
	}

	baseQuery := r.db.WithContext(ctx).Model(&models.Complaint{}).Where("department = ?", department)

	if err := baseQuery.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type groupCount struct {
		Key   string `gorm:"column:key"`
		Count int64  `gorm:"column:count"`
	}

	var statusCounts []groupCount
	err := baseQuery.Session(&gorm.Session{}).
		Select("status as key, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error
	if err != nil {
		return nil, err
	}
	for _, sc := range statusCounts {
		stats.ByStatus[models.ComplaintStatus(sc.Key)] = sc.Count
	}

	var typeCounts []groupCount
	err = baseQuery.Session(&gorm.Session{}).
		Select("type as key, count(*) as count").
		Group("type").
		Scan(&typeCounts).Error
	if err != nil {
		return nil, err
	}
	for _, tc := range typeCounts {
		stats.ByType[tc.Key] = tc.Count
	}

	// Average resolution time over Resolved complaints only, in days
	var avgSeconds *float64
	err = baseQuery.Session(&gorm.Session{}).
		Select("AVG(EXTRACT(EPOCH FROM (updated_at - created_at)))").
		Where("status = ?", models.StatusResolved).
		Scan(&avgSeconds).Error
	if err != nil {
		return nil, err
	}
	if avgSeconds != nil {
		stats.AvgResolutionDays = *avgSeconds / 86400.0
	}

	return stats, nil
}
