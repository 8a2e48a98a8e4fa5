package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fixed department buckets. Complaints are routed to one of these by the
// static type mapping; the set never grows at runtime.
const (
	DepartmentRoads       = "Roads"
	DepartmentSanitation  = "Sanitation"
	DepartmentElectricity = "Electricity"
	DepartmentWater       = "Water"
	DepartmentGeneral     = "General"
)

// AllDepartments lists the fixed buckets in seed order
var AllDepartments = []string{
	DepartmentRoads,
	DepartmentSanitation,
	DepartmentElectricity,
	DepartmentWater,
	DepartmentGeneral,
}

// Department is one of the fixed administrative buckets that own
// complaint resolution
type Department struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`

	HeadID *uuid.UUID `gorm:"type:uuid" json:"head_id"`
	Head   *User      `gorm:"foreignKey:HeadID" json:"head,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

type DepartmentResponse struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Head        *UserResponse `json:"head,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

func ToDepartmentResponse(d *Department) DepartmentResponse {
	resp := DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}

	if d.Head != nil {
		headResp := ToUserResponse(d.Head)
		resp.Head = &headResp
	}

	return resp
}
