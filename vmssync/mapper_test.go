package vmssync

import (
	"encoding/json"
	"testing"

	"github.com/admiralorbiter/VMS-sub007/models"
)

func TestMapVolunteer_NormalizesContactFields(t *testing.T) {
	raw := json.RawMessage(`{
		"Id": "003V000012AbCdE",
		"FirstName": "  Jordan ",
		"LastName": "Smith",
		"Email": " Jordan.Smith@Example.ORG ",
		"Phone": "(816) 555-0123",
		"Volunteer_Status__c": "Current",
		"MailingCity": "Kansas City",
		"LastActivityDate": "2025-06-01"
	}`)

	entity, mErr := mapVolunteer(raw)
	if mErr != nil {
		t.Fatalf("mapVolunteer error: %v", mErr)
	}
	v, ok := entity.(*models.Volunteer)
	if !ok {
		t.Fatalf("mapVolunteer returned %T, want *models.Volunteer", entity)
	}
	if v.ExternalId != "003V000012AbCdE" {
		t.Fatalf("external id = %q", v.ExternalId)
	}
	if v.FirstName != "Jordan" {
		t.Fatalf("first name not trimmed: %q", v.FirstName)
	}
	if v.Email != "jordan.smith@example.org" {
		t.Fatalf("email not normalized: %q", v.Email)
	}
	if v.Phone != "+18165550123" {
		t.Fatalf("phone not E.164: %q", v.Phone)
	}
	if v.Status != models.VolunteerStatusActive {
		t.Fatalf("status = %q, want active", v.Status)
	}
	if v.LastActivityAt == nil || v.LastActivityAt.Format("2006-01-02") != "2025-06-01" {
		t.Fatalf("last activity = %v", v.LastActivityAt)
	}
}

func TestMapVolunteer_FieldErrors(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
		code  string
	}{
		{"missing id", `{"FirstName":"A","LastName":"B"}`, "Id", models.ErrCodeMissingField},
		{"missing last name", `{"Id":"1","FirstName":"A"}`, "LastName", models.ErrCodeMissingField},
		{"bad email", `{"Id":"1","FirstName":"A","LastName":"B","Email":"not-an-email"}`, "Email", models.ErrCodeInvalidPayload},
		{"bad phone", `{"Id":"1","FirstName":"A","LastName":"B","Phone":"12"}`, "Phone", models.ErrCodeInvalidPayload},
		{"bad status", `{"Id":"1","FirstName":"A","LastName":"B","Volunteer_Status__c":"Retired"}`, "Volunteer_Status__c", models.ErrCodeInvalidEnum},
		{"bad date", `{"Id":"1","FirstName":"A","LastName":"B","LastActivityDate":"06/01/2025"}`, "LastActivityDate", models.ErrCodeInvalidPayload},
	}
	for _, tc := range cases {
		_, mErr := mapVolunteer(json.RawMessage(tc.raw))
		if mErr == nil {
			t.Fatalf("%s: expected mapping error", tc.name)
		}
		if mErr.Field != tc.field {
			t.Fatalf("%s: field = %q, want %q", tc.name, mErr.Field, tc.field)
		}
		if mErr.Code != tc.code {
			t.Fatalf("%s: code = %q, want %q", tc.name, mErr.Code, tc.code)
		}
	}
}

func TestMapSchool_RequiresCode(t *testing.T) {
	_, mErr := mapSchool(json.RawMessage(`{"Id":"001","Name":"Lincoln Elementary"}`))
	if mErr == nil || mErr.Field != "School_Code__c" || mErr.Code != models.ErrCodeMissingField {
		t.Fatalf("expected missing School_Code__c, got %v", mErr)
	}

	entity, mErr := mapSchool(json.RawMessage(`{"Id":"001","Name":"Lincoln Elementary","School_Code__c":"LNC-01","School_Level__c":"Elem"}`))
	if mErr != nil {
		t.Fatalf("mapSchool error: %v", mErr)
	}
	s := entity.(*models.School)
	if s.Code != "LNC-01" || s.Level != models.SchoolLevelElementary {
		t.Fatalf("school = %+v", s)
	}
}

func TestMapEvent_CapacityAndTimestamps(t *testing.T) {
	raw := json.RawMessage(`{
		"Id": "a01",
		"Name": "Career Day",
		"Status__c": "Completed",
		"Format__c": "In-Person",
		"Start_Date_and_Time__c": "2025-05-01T09:00:00Z",
		"End_Date_and_Time__c": "2025-05-01T11:30:00Z",
		"Capacity__c": "120",
		"School_Code__c": "LNC-01"
	}`)
	entity, mErr := mapEvent(raw)
	if mErr != nil {
		t.Fatalf("mapEvent error: %v", mErr)
	}
	e := entity.(*models.Event)
	if e.Capacity != 120 {
		t.Fatalf("capacity = %d", e.Capacity)
	}
	if e.Status != models.EventStatusCompleted || e.Format != models.EventFormatInPerson {
		t.Fatalf("status/format = %q/%q", e.Status, e.Format)
	}
	if e.StartsAt == nil || e.EndsAt == nil || !e.EndsAt.After(*e.StartsAt) {
		t.Fatalf("timestamps = %v / %v", e.StartsAt, e.EndsAt)
	}

	_, mErr = mapEvent(json.RawMessage(`{"Id":"a02","Name":"No Start"}`))
	if mErr == nil || mErr.Field != "Start_Date_and_Time__c" {
		t.Fatalf("expected missing start, got %v", mErr)
	}
}

func TestMapParticipation_Hours(t *testing.T) {
	entity, mErr := mapParticipation(json.RawMessage(
		`{"Id":"p1","Contact__c":"c1","Session__c":"s1","Status__c":"Attended","Delivery_Hours__c":"2.5"}`))
	if mErr != nil {
		t.Fatalf("mapParticipation error: %v", mErr)
	}
	p := entity.(*models.Participation)
	if p.DeliveryHours.String() != "2.5" {
		t.Fatalf("hours = %s", p.DeliveryHours)
	}
	if p.Status != models.ParticipationStatusAttended {
		t.Fatalf("status = %q", p.Status)
	}

	_, mErr = mapParticipation(json.RawMessage(
		`{"Id":"p2","Contact__c":"c1","Session__c":"s1","Status__c":"Attended","Delivery_Hours__c":-1}`))
	if mErr == nil || mErr.Field != "Delivery_Hours__c" {
		t.Fatalf("expected negative-hours error, got %v", mErr)
	}

	// Absent hours default to zero, not an error.
	entity, mErr = mapParticipation(json.RawMessage(
		`{"Id":"p3","Contact__c":"c1","Session__c":"s1","Status__c":"Registered"}`))
	if mErr != nil {
		t.Fatalf("mapParticipation error: %v", mErr)
	}
	if !entity.(*models.Participation).DeliveryHours.IsZero() {
		t.Fatalf("expected zero hours")
	}
}

func TestMapAffiliation_FlexibleBooleans(t *testing.T) {
	for _, spelled := range []string{`true`, `"true"`, `"1"`, `"Yes"`} {
		entity, mErr := mapAffiliation(json.RawMessage(
			`{"Id":"af1","npe5__Contact__c":"c1","npe5__Organization__c":"o1","npe5__Primary__c":` + spelled + `}`))
		if mErr != nil {
			t.Fatalf("primary=%s: %v", spelled, mErr)
		}
		a := entity.(*models.Affiliation)
		if a.IsPrimary == nil || !*a.IsPrimary {
			t.Fatalf("primary=%s: expected true", spelled)
		}
	}

	entity, mErr := mapAffiliation(json.RawMessage(
		`{"Id":"af2","npe5__Contact__c":"c1","npe5__Organization__c":"o1","npe5__Primary__c":"no"}`))
	if mErr != nil {
		t.Fatalf("mapAffiliation error: %v", mErr)
	}
	if a := entity.(*models.Affiliation); a.IsPrimary == nil || *a.IsPrimary {
		t.Fatalf("expected primary=false")
	}
}

func TestDecodeRaw_Unparseable(t *testing.T) {
	_, mErr := mapSchool(json.RawMessage(`{not json`))
	if mErr == nil || mErr.Code != models.ErrCodeInvalidPayload {
		t.Fatalf("expected invalid payload, got %v", mErr)
	}
}
