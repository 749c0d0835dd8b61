package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ClassLevel is the difficulty tier shown to customers. Display labels are
// the Spanish strings the studio's frontend renders; the wire keeps the
// English constants. Both directions of the mapping are closed: an unknown
// label is an error, never a silent default.
type ClassLevel string

const (
	ClassLevelBeginner     ClassLevel = "BEGINNER"
	ClassLevelIntermediate ClassLevel = "INTERMEDIATE"
	ClassLevelAdvanced     ClassLevel = "ADVANCED"
	ClassLevelAllLevels    ClassLevel = "ALL_LEVELS"
)

var classLevelLabels = map[ClassLevel]string{
	ClassLevelBeginner:     "Principiante",
	ClassLevelIntermediate: "Intermedio",
	ClassLevelAdvanced:     "Avanzado",
	ClassLevelAllLevels:    "Todos los Niveles",
}

func (l ClassLevel) DisplayName() string {
	return classLevelLabels[l]
}

func (l ClassLevel) Valid() bool {
	_, ok := classLevelLabels[l]
	return ok
}

func ParseClassLevel(s string) (ClassLevel, error) {
	for level, label := range classLevelLabels {
		if strings.EqualFold(s, label) || strings.EqualFold(s, string(level)) {
			return level, nil
		}
	}
	return "", fmt.Errorf("unknown class level %q", s)
}

type OfferingStatus string

const (
	OfferingStatusActive   OfferingStatus = "ACTIVE"
	OfferingStatusInactive OfferingStatus = "INACTIVE"
	OfferingStatusFull     OfferingStatus = "FULL"
)

var offeringStatusLabels = map[OfferingStatus]string{
	OfferingStatusActive:   "Activo",
	OfferingStatusInactive: "Inactivo",
	OfferingStatusFull:     "Completo",
}

func (s OfferingStatus) DisplayName() string {
	return offeringStatusLabels[s]
}

func (s OfferingStatus) Valid() bool {
	_, ok := offeringStatusLabels[s]
	return ok
}

func ParseOfferingStatus(s string) (OfferingStatus, error) {
	for status, label := range offeringStatusLabels {
		if strings.EqualFold(s, label) || strings.EqualFold(s, string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown offering status %q", s)
}

// ClassOffering is a recurring weekly class: a fixed weekday, a fixed
// time window, and a seat capacity. The scheduling engine only reads
// offerings; they are administered through the catalog endpoints.
type ClassOffering struct {
	bun.BaseModel `bun:"table:class_offerings"`

	ID           uuid.UUID      `bun:"id,pk,type:uuid" json:"id"`
	Name         string         `bun:"name,notnull" json:"name"`
	Description  string         `bun:"description" json:"description"`
	Price        string         `bun:"price" json:"price"`
	Weekday      time.Weekday   `bun:"weekday,notnull" json:"weekday"`
	StartTime    TimeOfDay      `bun:"start_time,notnull" json:"startTime"`
	EndTime      TimeOfDay      `bun:"end_time,notnull" json:"endTime"`
	Capacity     int            `bun:"capacity,notnull" json:"maxCapacity"`
	Level        ClassLevel     `bun:"level" json:"level"`
	Status       OfferingStatus `bun:"status,notnull" json:"status"`
	InstructorID string         `bun:"instructor_id" json:"instructorId"`
	Materials    string         `bun:"materials" json:"materials"`
	Requirements string         `bun:"requirements" json:"requirements"`
	CreatedAt    time.Time      `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt    time.Time      `bun:"updated_at,notnull" json:"updatedAt"`
}

func (o *ClassOffering) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if o.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			o.ID = id
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		if o.UpdatedAt.IsZero() {
			o.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		o.UpdatedAt = now
	}
	return nil
}

// WindowValid reports whether the offering's own invariants hold:
// start strictly before end, capacity at least one seat.
func (o ClassOffering) WindowValid() bool {
	return o.StartTime.Valid() && o.EndTime.Valid() && o.StartTime < o.EndTime && o.Capacity >= 1
}
