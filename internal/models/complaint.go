package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ComplaintStatus is the lifecycle status of a complaint
type ComplaintStatus string

const (
	StatusSubmitted  ComplaintStatus = "Submitted"
	StatusInProgress ComplaintStatus = "In Progress"
	StatusResolved   ComplaintStatus = "Resolved"
)

// ValidStatus reports whether s is a member of the status enumeration
func ValidStatus(s ComplaintStatus) bool {
	switch s {
	case StatusSubmitted, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Known complaint types. Unknown values are accepted and routed to the
// General department.
const (
	TypeBrokenRoad        = "Broken Road"
	TypeGarbageCollection = "Garbage Collection"
	TypeStreetLight       = "Street Light"
	TypeWaterSupply       = "Water Supply"
	TypeOther             = "Other"
)

var typeDepartments = map[string]string{
	TypeBrokenRoad:        DepartmentRoads,
	TypeGarbageCollection: DepartmentSanitation,
	TypeStreetLight:       DepartmentElectricity,
	TypeWaterSupply:       DepartmentWater,
	TypeOther:             DepartmentGeneral,
}

// DepartmentForType maps a complaint type to its owning department.
// The mapping is static; anything unmapped falls through to General.
func DepartmentForType(complaintType string) string {
	if dept, ok := typeDepartments[complaintType]; ok {
		return dept
	}
	return DepartmentGeneral
}

// Complaint represents a citizen-submitted civic issue report
type Complaint struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ComplaintNumber string    `gorm:"size:50;uniqueIndex;not null" json:"complaint_number"`

	ReporterID uuid.UUID `gorm:"type:uuid;index;not null" json:"reporter_id"`
	Reporter   *User     `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`

	Type        string `gorm:"size:100;not null;index" json:"type"`
	Description string `gorm:"type:text;not null" json:"description"`

	// Geolocation; zero values mean "unknown"
	Latitude  float64 `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude float64 `gorm:"type:decimal(11,8)" json:"longitude"`
	Address   string  `gorm:"size:500" json:"address"`

	// Photo stored in object storage after validation passes
	ImageURL string `gorm:"size:1000" json:"image_url"`
	ImageKey string `gorm:"size:500" json:"-"`

	// Derived from Type via the static mapping; never user-supplied
	Department string `gorm:"size:100;not null;index" json:"department"`

	Status            ComplaintStatus `gorm:"size:20;not null;default:'Submitted';index" json:"status"`
	Escalated         bool            `gorm:"default:false;index" json:"escalated"`
	TransferredToHead bool            `gorm:"default:false" json:"transferred_to_head"`

	History []ComplaintHistory `gorm:"foreignKey:ComplaintID" json:"history,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ComplaintHistory is an append-only audit entry. Rows are never updated
// or deleted once written.
type ComplaintHistory struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ComplaintID uuid.UUID  `gorm:"type:uuid;index;not null" json:"complaint_id"`
	Complaint   *Complaint `gorm:"foreignKey:ComplaintID" json:"-"`

	Status  ComplaintStatus `gorm:"size:20;not null" json:"status"`
	Comment string          `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (h *ComplaintHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// Request types

type ComplaintSubmitRequest struct {
	Type        string  `json:"type" form:"type" validate:"required"`
	Description string  `json:"description" form:"description" validate:"required"`
	Latitude    float64 `json:"latitude" form:"latitude" validate:"required"`
	Longitude   float64 `json:"longitude" form:"longitude" validate:"required"`
	Address     string  `json:"address" form:"address" validate:"required"`
}

type StatusUpdateRequest struct {
	Status  string `json:"status" validate:"required"`
	Comment string `json:"comment"`
}

type ImageCheckRequest struct {
	Type        string `form:"type" validate:"required"`
	Description string `form:"description" validate:"required"`
}

// Response types

type ComplaintSubmitResponse struct {
	ComplaintID     uuid.UUID `json:"complaint_id"`
	ComplaintNumber string    `json:"complaint_number"`
	Department      string    `json:"department"`
	ImageURL        string    `json:"image_url,omitempty"`
}

type ComplaintResponse struct {
	ID                uuid.UUID                  `json:"id"`
	ComplaintNumber   string                     `json:"complaint_number"`
	Reporter          *UserResponse              `json:"reporter,omitempty"`
	Type              string                     `json:"type"`
	Description       string                     `json:"description"`
	Latitude          float64                    `json:"latitude"`
	Longitude         float64                    `json:"longitude"`
	Address           string                     `json:"address"`
	ImageURL          string                     `json:"image_url,omitempty"`
	Department        string                     `json:"department"`
	Status            ComplaintStatus            `json:"status"`
	Escalated         bool                       `json:"escalated"`
	TransferredToHead bool                       `json:"transferred_to_head"`
	History           []ComplaintHistoryResponse `json:"history,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

type ComplaintHistoryResponse struct {
	ID        uuid.UUID       `json:"id"`
	Status    ComplaintStatus `json:"status"`
	Comment   string          `json:"comment,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type ComplaintStatsResponse struct {
	Total             int64                     `json:"total"`
	ByStatus          map[ComplaintStatus]int64 `json:"by_status"`
	ByType            map[string]int64          `json:"by_type"`
	AvgResolutionDays float64                   `json:"avg_resolution_days"`
}

// Converter functions

func ToComplaintResponse(c *Complaint) ComplaintResponse {
	resp := ComplaintResponse{
		ID:                c.ID,
		ComplaintNumber:   c.ComplaintNumber,
		Type:              c.Type,
		Description:       c.Description,
		Latitude:          c.Latitude,
		Longitude:         c.Longitude,
		Address:           c.Address,
		ImageURL:          c.ImageURL,
		Department:        c.Department,
		Status:            c.Status,
		Escalated:         c.Escalated,
		TransferredToHead: c.TransferredToHead,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}

	if c.Reporter != nil {
		reporterResp := ToUserResponse(c.Reporter)
		resp.Reporter = &reporterResp
	}

	if len(c.History) > 0 {
		resp.History = make([]ComplaintHistoryResponse, len(c.History))
		for i, h := range c.History {
			resp.History[i] = ToComplaintHistoryResponse(&h)
		}
	}

	return resp
}

func ToComplaintHistoryResponse(h *ComplaintHistory) ComplaintHistoryResponse {
	return ComplaintHistoryResponse{
		ID:        h.ID,
		Status:    h.Status,
		Comment:   h.Comment,
		CreatedAt: h.CreatedAt,
	}
}
