package models

import (
	"errors"
	"fmt"
	"strings"
)

type RunStatus string

const (
	RunStatusPending            RunStatus = "Pending"
	RunStatusRunning            RunStatus = "Running"
	RunStatusCompleted          RunStatus = "Completed"
	RunStatusPartiallyCompleted RunStatus = "PartiallyCompleted"
	RunStatusFailed             RunStatus = "Failed"
)

// IsTerminal reports whether the run has been finalized.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusPartiallyCompleted || s == RunStatusFailed
}

const (
	SyncTriggeredManual    = "manual"
	SyncTriggeredRetry     = "retry"
	SyncTriggeredScheduled = "scheduled"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Weight orders severities for quality scoring. A failed critical finding
// must cost far more than a failed info finding.
func (s Severity) Weight() int64 {
	switch s {
	case SeverityCritical:
		return 10
	case SeverityError:
		return 5
	case SeverityWarning:
		return 2
	default:
		return 1
	}
}

type ValidationTier string

const (
	TierCount        ValidationTier = "Count"
	TierCompleteness ValidationTier = "Completeness"
	TierType         ValidationTier = "Type"
	TierRelationship ValidationTier = "Relationship"
	TierBusinessRule ValidationTier = "BusinessRule"
)

type SchoolLevel string

const (
	SchoolLevelElementary SchoolLevel = "elementary"
	SchoolLevelMiddle     SchoolLevel = "middle"
	SchoolLevelHigh       SchoolLevel = "high"
	SchoolLevelOther      SchoolLevel = "other"
)

func ParseSchoolLevel(s string) (SchoolLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "elementary", "elem":
		return SchoolLevelElementary, nil
	case "middle":
		return SchoolLevelMiddle, nil
	case "high":
		return SchoolLevelHigh, nil
	case "", "other":
		return SchoolLevelOther, nil
	default:
		return "", fmt.Errorf("invalid school level %q", s)
	}
}

type VolunteerStatus string

const (
	VolunteerStatusActive   VolunteerStatus = "active"
	VolunteerStatusInactive VolunteerStatus = "inactive"
	VolunteerStatusUnknown  VolunteerStatus = "unknown"
)

func ParseVolunteerStatus(s string) (VolunteerStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "current":
		return VolunteerStatusActive, nil
	case "inactive", "former":
		return VolunteerStatusInactive, nil
	case "", "unknown":
		return VolunteerStatusUnknown, nil
	default:
		return "", fmt.Errorf("invalid volunteer status %q", s)
	}
}

type EventStatus string

const (
	EventStatusDraft     EventStatus = "Draft"
	EventStatusConfirmed EventStatus = "Confirmed"
	EventStatusCompleted EventStatus = "Completed"
	EventStatusCancelled EventStatus = "Cancelled"
)

func ParseEventStatus(s string) (EventStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draft", "requested":
		return EventStatusDraft, nil
	case "confirmed", "published":
		return EventStatusConfirmed, nil
	case "completed", "finished":
		return EventStatusCompleted, nil
	case "cancelled", "canceled":
		return EventStatusCancelled, nil
	default:
		return "", fmt.Errorf("invalid event status %q", s)
	}
}

type EventFormat string

const (
	EventFormatInPerson EventFormat = "in_person"
	EventFormatVirtual  EventFormat = "virtual"
)

func ParseEventFormat(s string) (EventFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in_person", "in-person", "inperson", "":
		return EventFormatInPerson, nil
	case "virtual", "online":
		return EventFormatVirtual, nil
	default:
		return "", fmt.Errorf("invalid event format %q", s)
	}
}

type ParticipationStatus string

const (
	ParticipationStatusRegistered ParticipationStatus = "Registered"
	ParticipationStatusConfirmed  ParticipationStatus = "Confirmed"
	ParticipationStatusAttended   ParticipationStatus = "Attended"
	ParticipationStatusNoShow     ParticipationStatus = "NoShow"
	ParticipationStatusCancelled  ParticipationStatus = "Cancelled"
)

func ParseParticipationStatus(s string) (ParticipationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "registered", "signed up":
		return ParticipationStatusRegistered, nil
	case "confirmed":
		return ParticipationStatusConfirmed, nil
	case "attended", "completed":
		return ParticipationStatusAttended, nil
	case "noshow", "no-show", "no show":
		return ParticipationStatusNoShow, nil
	case "cancelled", "canceled":
		return ParticipationStatusCancelled, nil
	default:
		return "", fmt.Errorf("invalid participation status %q", s)
	}
}

// PreCompletionStatuses are participation states that must not survive on a
// completed event; the business-rule tier flags them.
func PreCompletionStatuses() []ParticipationStatus {
	return []ParticipationStatus{ParticipationStatusRegistered, ParticipationStatusConfirmed}
}

type UserRole string

const (
	UserRoleAdmin    UserRole = "A"
	UserRoleOperator UserRole = "O"
	UserRoleViewer   UserRole = "V"
)

func (r *UserRole) FromString(s string) error {
	switch s {
	case "A", "O", "V":
		*r = UserRole(s)
		return nil
	default:
		return errors.New("invalid user role")
	}
}
