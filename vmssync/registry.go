package vmssync

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/admiralorbiter/VMS-sub007/models"
)

// EntityDescriptor binds an entity type to its source object: the SOQL
// shape, the documented filter, and the mapper that turns raw records into
// model rows. Stage ordering and link metadata live on the models side.
type EntityDescriptor struct {
	Type    string
	SObject string
	Fields  []string
	// DefaultFilter is the documented WHERE clause shared by Query and
	// Count so local/source comparisons measure the same population.
	DefaultFilter string
	Map           func(raw json.RawMessage) (models.ImportEntity, *MappingError)
}

func (d *EntityDescriptor) EffectiveFilter(filter string) string {
	if strings.TrimSpace(filter) != "" {
		return filter
	}
	return d.DefaultFilter
}

func (d *EntityDescriptor) SOQL(filter string) string {
	soql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(d.Fields, ", "), d.SObject)
	if where := d.EffectiveFilter(filter); where != "" {
		soql += " WHERE " + where
	}
	return soql
}

func (d *EntityDescriptor) CountSOQL(filter string) string {
	soql := fmt.Sprintf("SELECT COUNT() FROM %s", d.SObject)
	if where := d.EffectiveFilter(filter); where != "" {
		soql += " WHERE " + where
	}
	return soql
}

func (d *EntityDescriptor) Stage() int {
	return models.EntityStage(d.Type)
}

var descriptors = map[string]*EntityDescriptor{
	models.EntityTypeSchools: {
		Type:          models.EntityTypeSchools,
		SObject:       "Account",
		Fields:        []string{"Id", "Name", "School_Code__c", "District__c", "School_Level__c", "BillingCity", "BillingState"},
		DefaultFilter: "RecordType.Name = 'School'",
		Map:           mapSchool,
	},
	models.EntityTypeOrganizations: {
		Type:          models.EntityTypeOrganizations,
		SObject:       "Account",
		Fields:        []string{"Id", "Name", "Type", "Website", "BillingCity", "BillingState"},
		DefaultFilter: "RecordType.Name != 'School'",
		Map:           mapOrganization,
	},
	models.EntityTypeVolunteers: {
		Type:          models.EntityTypeVolunteers,
		SObject:       "Contact",
		Fields:        []string{"Id", "FirstName", "LastName", "Email", "Phone", "Title", "Volunteer_Status__c", "MailingCity", "MailingState", "LastActivityDate"},
		DefaultFilter: "Contact_Type__c = 'Volunteer'",
		Map:           mapVolunteer,
	},
	models.EntityTypeAffiliations: {
		Type:    models.EntityTypeAffiliations,
		SObject: "npe5__Affiliation__c",
		Fields:  []string{"Id", "npe5__Contact__c", "npe5__Organization__c", "npe5__Role__c", "npe5__Primary__c", "npe5__StartDate__c", "npe5__EndDate__c"},
		Map:     mapAffiliation,
	},
	models.EntityTypeEvents: {
		Type:    models.EntityTypeEvents,
		SObject: "Session__c",
		Fields:  []string{"Id", "Name", "Description__c", "Status__c", "Format__c", "Start_Date_and_Time__c", "End_Date_and_Time__c", "Location__c", "Capacity__c", "School_Code__c"},
		Map:     mapEvent,
	},
	models.EntityTypeStudents: {
		Type:          models.EntityTypeStudents,
		SObject:       "Contact",
		Fields:        []string{"Id", "FirstName", "LastName", "Grade__c", "School_Code__c"},
		DefaultFilter: "Contact_Type__c = 'Student'",
		Map:           mapStudent,
	},
	models.EntityTypeTeachers: {
		Type:          models.EntityTypeTeachers,
		SObject:       "Contact",
		Fields:        []string{"Id", "FirstName", "LastName", "Email", "Phone", "Department", "School_Code__c"},
		DefaultFilter: "Contact_Type__c = 'Teacher'",
		Map:           mapTeacher,
	},
	models.EntityTypeParticipations: {
		Type:    models.EntityTypeParticipations,
		SObject: "Session_Participant__c",
		Fields:  []string{"Id", "Contact__c", "Session__c", "Status__c", "Delivery_Hours__c"},
		Map:     mapParticipation,
	},
}

func DescriptorFor(entityType string) (*EntityDescriptor, error) {
	desc, ok := descriptors[entityType]
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
	return desc, nil
}

// SelectEntityTypes applies include/exclude filters over the full set. An
// empty include means everything; exclusions win over inclusions.
func SelectEntityTypes(include, exclude []string) ([]string, error) {
	for _, et := range append(append([]string{}, include...), exclude...) {
		if !models.KnownEntityType(et) {
			return nil, fmt.Errorf("unknown entity type %q", et)
		}
	}

	selected := include
	if len(selected) == 0 {
		selected = models.AllEntityTypes()
	}

	excluded := map[string]bool{}
	for _, et := range exclude {
		excluded[et] = true
	}

	var out []string
	for _, et := range models.AllEntityTypes() {
		if excluded[et] {
			continue
		}
		for _, sel := range selected {
			if sel == et {
				out = append(out, et)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no entity types selected")
	}
	return out, nil
}

// PlanStages groups the selected entity types into dependency stages: every
// type in stage N imports strictly before any type in stage N+1, so link
// targets exist before the rows that reference them.
func PlanStages(include, exclude []string) ([][]*EntityDescriptor, error) {
	selected, err := SelectEntityTypes(include, exclude)
	if err != nil {
		return nil, err
	}

	stages := make([][]*EntityDescriptor, models.MaxStage())
	for _, et := range selected {
		desc := descriptors[et]
		idx := desc.Stage() - 1
		stages[idx] = append(stages[idx], desc)
	}

	var out [][]*EntityDescriptor
	for _, stage := range stages {
		if len(stage) > 0 {
			out = append(out, stage)
		}
	}
	return out, nil
}
