package vmssync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/admiralorbiter/VMS-sub007/models"
	"github.com/admiralorbiter/VMS-sub007/utils"
	"github.com/shopspring/decimal"
)

// MappingError is a record-level mapping failure. The importer records it
// as an ImportError and moves on; a record never maps partially.
type MappingError struct {
	Field  string
	Code   string
	Reason string
}

func (e *MappingError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func missingField(field string) *MappingError {
	return &MappingError{Field: field, Code: models.ErrCodeMissingField, Reason: "required field is missing"}
}

func invalidField(field, reason string) *MappingError {
	return &MappingError{Field: field, Code: models.ErrCodeInvalidPayload, Reason: reason}
}

func invalidEnum(field, reason string) *MappingError {
	return &MappingError{Field: field, Code: models.ErrCodeInvalidEnum, Reason: reason}
}

// flexBool accepts JSON booleans and their spreadsheet spellings.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch strings.ToLower(strings.Trim(string(data), `"`)) {
	case "true", "1", "yes":
		*b = true
	case "false", "0", "no", "", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", string(data))
	}
	return nil
}

// Raw source record shapes. Field names follow the source schema; the
// spreadsheet connector emits the same keys from its header row. Optional
// numerics are NullDecimal so JSON null, numbers and quoted cell text all
// parse.

type rawSchool struct {
	Id       string `json:"Id"`
	Name     string `json:"Name"`
	Code     string `json:"School_Code__c"`
	District string `json:"District__c"`
	Level    string `json:"School_Level__c"`
	City     string `json:"BillingCity"`
	State    string `json:"BillingState"`
}

type rawOrganization struct {
	Id      string `json:"Id"`
	Name    string `json:"Name"`
	Type    string `json:"Type"`
	Website string `json:"Website"`
	City    string `json:"BillingCity"`
	State   string `json:"BillingState"`
}

type rawVolunteer struct {
	Id               string `json:"Id"`
	FirstName        string `json:"FirstName"`
	LastName         string `json:"LastName"`
	Email            string `json:"Email"`
	Phone            string `json:"Phone"`
	Title            string `json:"Title"`
	Status           string `json:"Volunteer_Status__c"`
	City             string `json:"MailingCity"`
	State            string `json:"MailingState"`
	LastActivityDate string `json:"LastActivityDate"`
}

type rawAffiliation struct {
	Id             string   `json:"Id"`
	ContactId      string   `json:"npe5__Contact__c"`
	OrganizationId string   `json:"npe5__Organization__c"`
	Role           string   `json:"npe5__Role__c"`
	Primary        flexBool `json:"npe5__Primary__c"`
	StartDate      string   `json:"npe5__StartDate__c"`
	EndDate        string   `json:"npe5__EndDate__c"`
}

type rawEvent struct {
	Id          string              `json:"Id"`
	Name        string              `json:"Name"`
	Description string              `json:"Description__c"`
	Status      string              `json:"Status__c"`
	Format      string              `json:"Format__c"`
	StartsAt    string              `json:"Start_Date_and_Time__c"`
	EndsAt      string              `json:"End_Date_and_Time__c"`
	Location    string              `json:"Location__c"`
	Capacity    decimal.NullDecimal `json:"Capacity__c"`
	SchoolCode  string              `json:"School_Code__c"`
}

type rawStudent struct {
	Id         string `json:"Id"`
	FirstName  string `json:"FirstName"`
	LastName   string `json:"LastName"`
	Grade      string `json:"Grade__c"`
	SchoolCode string `json:"School_Code__c"`
}

type rawTeacher struct {
	Id         string `json:"Id"`
	FirstName  string `json:"FirstName"`
	LastName   string `json:"LastName"`
	Email      string `json:"Email"`
	Phone      string `json:"Phone"`
	Department string `json:"Department"`
	SchoolCode string `json:"School_Code__c"`
}

type rawParticipation struct {
	Id            string              `json:"Id"`
	ContactId     string              `json:"Contact__c"`
	SessionId     string              `json:"Session__c"`
	Status        string              `json:"Status__c"`
	DeliveryHours decimal.NullDecimal `json:"Delivery_Hours__c"`
}

func decodeRaw(raw json.RawMessage, out interface{}) *MappingError {
	if err := json.Unmarshal(raw, out); err != nil {
		return &MappingError{Code: models.ErrCodeInvalidPayload, Reason: "unparseable record: " + err.Error()}
	}
	return nil
}

func mapSchool(raw json.RawMessage) (models.ImportEntity, *MappingError) {
	var rec rawSchool
	if mErr := decodeRaw(raw, &rec); mErr != nil {
		return nil, mErr
	}
	externalId := strings.TrimSpace(rec.Id)
	if externalId == "" {
		return nil, missingField("Id")
	}
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return nil, missingField("Name")
	}
	code := strings.TrimSpace(rec.Code)
	if code == "" {
		return nil, missingField("School_Code__c")
	}
	level, err := models.ParseSchoolLevel(rec.Level)
	if err != nil {
		return nil, invalidEnum("School_Level__c", err.Error())
	}

	return &models.School{
		ExternalId: externalId,
		Code:       code,
		Name:       name,
		District:   strings.TrimSpace(rec.District),
		Level:      level,
		City:       strings.TrimSpace(rec.City),
		State:      strings.TrimSpace(rec.State),
		IsActive:   utils.NewTrue(),
	}, nil
}

func mapOrganization(raw json.RawMessage) (models.ImportEntity, *MappingError) {
	var rec rawOrganization
	if mErr := decodeRaw(raw, &rec); mErr != nil {
		return nil, mErr
	}
	externalId := strings.TrimSpace(rec.Id)
	if externalId == "" {
		return nil, missingField("Id")
	}
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return nil, missingField("Name")
	}

	return &models.Organization{
		ExternalId: externalId,
		Name:       name,
		Type:       strings.TrimSpace(rec.Type),
		Website:    strings.TrimSpace(rec.Website),
		City:       strings.TrimSpace(rec.City),
		State:      strings.TrimSpace(rec.State),
		IsActive:   utils.NewTrue(),
	}, nil
}

func mapVolunteer(raw json.RawMessage) (models.ImportEntity, *MappingError) {
	var rec rawVolunteer
	if mErr := decodeRaw(raw, &rec); mErr != nil {
		return nil, mErr
	}
	externalId := strings.TrimSpace(rec.Id)
	if externalId == "" {
		return nil, missingField("Id")
	}
	if strings.TrimSpace(rec.FirstName) == "" {
		return nil, missingField("FirstName")
	}
	if strings.TrimSpace(rec.LastName) == "" {
		return nil, missingField("LastName")
	}

	// Contact fields are optional but must parse when present.
	email := ""
	if strings.TrimSpace(rec.Email) != "" {
		normalized, err := utils.NormalizeEmail(rec.Email)
		if err != nil {
			return nil, invalidField("Email", err.Error())
		}
		email = normalized
	}
	phone, err := utils.NormalizePhoneNumber(rec.Phone, utils.CountryCode)
	if err != nil {
		return nil, invalidField("Phone", err.Error())
	}
	status, err := models.ParseVolunteerStatus(rec.Status)
	if err != nil {
		return nil, invalidEnum("Volunteer_Status__c", err.Error())
	}

	var lastActivityAt *time.Time
	if strings.TrimSpace(rec.LastActivityDate) != "" {
		t, err := utils.ParseSourceTime(rec.LastActivityDate)
		if err != nil {
			return nil, invalidField("LastActivityDate", err.Error())
		}
		lastActivityAt = &t
	}

	return &models.Volunteer{
		ExternalId:     externalId,
		FirstName:      strings.TrimSpace(rec.FirstName),
		LastName:       strings.TrimSpace(rec.LastName),
		Email:          email,
		Phone:          phone,
		Title:          strings.TrimSpace(rec.Title),
		Status:         status,
		City:           strings.TrimSpace(rec.City),
		State:          strings.TrimSpace(rec.State),
		LastActivityAt: lastActivityAt,
	}, nil
}

func mapAffiliation(raw json.RawMessage) (models.ImportEntity, *MappingError) {
	var rec rawAffiliation
	if mErr := decodeRaw(raw, &rec); mErr != nil {
		return nil, mErr
	}
	externalId := strings.TrimSpace(rec.Id)
	if externalId == "" {
		return nil, missingField("Id")
	}
	volunteerExternalId := strings.TrimSpace(rec.ContactId)
	if volunteerExternalId == "" {
		return nil, missingField("npe5__Contact__c")
	}
	organizationExternalId := strings.TrimSpace(rec.OrganizationId)
	if organizationExternalId == "" {
		return nil, missingField("npe5__Organization__c")
	}

	startDate, mErr := optionalTime("npe5__StartDate__c", rec.StartDate)
	if mErr != nil {
		return nil, mErr
	}
	endDate, mErr := optionalTime("npe5__EndDate__c", rec.EndDate)
	if mErr != nil {
		return nil, mErr
	}

	isPrimary := bool(rec.Primary)
	return &models.Affiliation{
		ExternalId:             externalId,
		VolunteerExternalId:    volunteerExternalId,
		OrganizationExternalId: organizationExternalId,
		Role:                   strings.TrimSpace(rec.Role),
		IsPrimary:              &isPrimary,
		StartDate:              startDate,
		EndDate:                endDate,
	}, nil
}

func mapEvent(raw json.RawMessage) (models.ImportEntity, *MappingError) {
	var rec rawEvent
	if mErr := decodeRaw(raw, &rec); mErr != nil {
		return nil, mErr
	}
	externalId := strings.TrimSpace(rec.Id)
	if externalId == "" {
		return nil, missingField("Id")
	}
	title := strings.TrimSpace(rec.Name)
	if title == "" {
		return nil, missingField("Name")
	}
	if strings.TrimSpace(rec.StartsAt) == "" {
		return nil, missingField("Start_Date_and_Time__c")
	}
	startsAt, err := utils.ParseSourceTime(rec.StartsAt)
	if err != nil {
		return nil, invalidField("Start_Date_and_Time__c", err.Error())
	}
	endsAt, mErr := optionalTime("End_Date_and_Time__c", rec.EndsAt)
	if mErr != nil {
		return nil, mErr
	}
	status, err := models.ParseEventStatus(rec.Status)
	if err != nil {
		return nil, invalidEnum("Status__c", err.Error())
	}
	format, err := models.ParseEventFormat(rec.Format)
	if err != nil {
		return nil, invalidEnum("Format__c", err.Error())
	}

	capacity := 0
	if rec.Capacity.Valid {
		capacity = int(rec.Capacity.Decimal.IntPart())
	}

	return &models.Event{
		ExternalId:  externalId,
		Title:       title,
		Description: strings.TrimSpace(rec.Description),
		Status:      status,
		Format:      format,
		StartsAt:    &startsAt,
		EndsAt:      endsAt,
		Location:    strings.TrimSpace(rec.Location),
		Capacity:    capacity,
		SchoolCode:  strings.TrimSpace(rec.SchoolCode),
	}, nil
}

func mapStudent(raw json.RawMessage) (models.ImportEntity, *MappingError) {
	var rec rawStudent
	if mErr := decodeRaw(raw, &rec); mErr != nil {
		return nil, mErr
	}
	externalId := strings.TrimSpace(rec.Id)
	if externalId == "" {
		return nil, missingField("Id")
	}
	if strings.TrimSpace(rec.FirstName) == "" {
		return nil, missingField("FirstName")
	}
	if strings.TrimSpace(rec.LastName) == "" {
		return nil, missingField("LastName")
	}

	return &models.Student{
		ExternalId: externalId,
		FirstName:  strings.TrimSpace(rec.FirstName),
		LastName:   strings.TrimSpace(rec.LastName),
		Grade:      strings.TrimSpace(rec.Grade),
		SchoolCode: strings.TrimSpace(rec.SchoolCode),
	}, nil
}

func mapTeacher(raw json.RawMessage) (models.ImportEntity, *MappingError) {
	var rec rawTeacher
	if mErr := decodeRaw(raw, &rec); mErr != nil {
		return nil, mErr
	}
	externalId := strings.TrimSpace(rec.Id)
	if externalId == "" {
		return nil, missingField("Id")
	}
	if strings.TrimSpace(rec.FirstName) == "" {
		return nil, missingField("FirstName")
	}
	if strings.TrimSpace(rec.LastName) == "" {
		return nil, missingField("LastName")
	}

	email := ""
	if strings.TrimSpace(rec.Email) != "" {
		normalized, err := utils.NormalizeEmail(rec.Email)
		if err != nil {
			return nil, invalidField("Email", err.Error())
		}
		email = normalized
	}
	phone, err := utils.NormalizePhoneNumber(rec.Phone, utils.CountryCode)
	if err != nil {
		return nil, invalidField("Phone", err.Error())
	}

	return &models.Teacher{
		ExternalId: externalId,
		FirstName:  strings.TrimSpace(rec.FirstName),
		LastName:   strings.TrimSpace(rec.LastName),
		Email:      email,
		Phone:      phone,
		Department: strings.TrimSpace(rec.Department),
		SchoolCode: strings.TrimSpace(rec.SchoolCode),
	}, nil
}

func mapParticipation(raw json.RawMessage) (models.ImportEntity, *MappingError) {
	var rec rawParticipation
	if mErr := decodeRaw(raw, &rec); mErr != nil {
		return nil, mErr
	}
	externalId := strings.TrimSpace(rec.Id)
	if externalId == "" {
		return nil, missingField("Id")
	}
	volunteerExternalId := strings.TrimSpace(rec.ContactId)
	if volunteerExternalId == "" {
		return nil, missingField("Contact__c")
	}
	eventExternalId := strings.TrimSpace(rec.SessionId)
	if eventExternalId == "" {
		return nil, missingField("Session__c")
	}
	if strings.TrimSpace(rec.Status) == "" {
		return nil, missingField("Status__c")
	}
	status, err := models.ParseParticipationStatus(rec.Status)
	if err != nil {
		return nil, invalidEnum("Status__c", err.Error())
	}

	hours := decimal.Zero
	if rec.DeliveryHours.Valid {
		hours = rec.DeliveryHours.Decimal
		if hours.IsNegative() {
			return nil, invalidField("Delivery_Hours__c", "hours must not be negative")
		}
	}

	return &models.Participation{
		ExternalId:          externalId,
		VolunteerExternalId: volunteerExternalId,
		EventExternalId:     eventExternalId,
		Status:              status,
		DeliveryHours:       hours,
	}, nil
}

func optionalTime(field, value string) (*time.Time, *MappingError) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := utils.ParseSourceTime(value)
	if err != nil {
		return nil, invalidField(field, err.Error())
	}
	return &t, nil
}
