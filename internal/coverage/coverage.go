// Package coverage computes zone staffing requirements from crowd headcounts.
//
// The event runs a fixed ratio of one staff member per eight people. Coverage
// is always derived at read time from the latest headcount and the current
// shift assignments; it is never stored.
package coverage

// PeoplePerStaff is the fixed crowd-to-staff ratio.
const PeoplePerStaff = 8

// Status classifies the gap between required and assigned staff.
type Status string

const (
	StatusAdequate     Status = "adequate"
	StatusUnderstaffed Status = "understaffed"
	StatusOverstaffed  Status = "overstaffed"
)

// adequateSlack is the tolerated absolute delta before a zone counts as
// under- or overstaffed.
const adequateSlack = 2

// RequiredStaff returns the number of staff needed for a headcount,
// rounded up. Non-positive headcounts need nobody.
func RequiredStaff(headcount int) int {
	if headcount <= 0 {
		return 0
	}
	return (headcount + PeoplePerStaff - 1) / PeoplePerStaff
}

// Delta returns assigned minus required staff.
func Delta(required, assigned int) int {
	return assigned - required
}

// Evaluate classifies a required/assigned pair.
func Evaluate(required, assigned int) Status {
	delta := Delta(required, assigned)
	switch {
	case delta < -adequateSlack:
		return StatusUnderstaffed
	case delta > adequateSlack:
		return StatusOverstaffed
	default:
		return StatusAdequate
	}
}

// Report bundles the derived coverage numbers for one zone.
type Report struct {
	Zone          string `json:"zone"`
	Headcount     int    `json:"headcount"`
	RequiredStaff int    `json:"required_staff"`
	AssignedStaff int    `json:"assigned_staff"`
	Delta         int    `json:"delta"`
	Status        Status `json:"status"`
}

// ForZone derives a full coverage report from a headcount and the staff
// currently assigned across the zone's shifts.
func ForZone(zone string, headcount, assigned int) Report {
	required := RequiredStaff(headcount)
	return Report{
		Zone:          zone,
		Headcount:     headcount,
		RequiredStaff: required,
		AssignedStaff: assigned,
		Delta:         Delta(required, assigned),
		Status:        Evaluate(required, assigned),
	}
}
