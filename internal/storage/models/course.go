package models

// Course is one entry of the raw catalog. Only the fields the availability
// engine reads are decoded.
type Course struct {
	Name         string    `json:"name"`
	DeptCourseID string    `json:"deptCourseId"`
	Sections     []Section `json:"sections" validate:"required,dive"`
}

// Label identifies the course in logs and skip reasons.
func (c Course) Label() string {
	switch {
	case c.DeptCourseID != "" && c.Name != "":
		return c.DeptCourseID + " " + c.Name
	case c.Name != "":
		return c.Name
	default:
		return c.DeptCourseID
	}
}

// Section is a scheduled offering of a course. Location may be null for
// sections on an excluded campus; the aggregator requires it otherwise.
type Section struct {
	Location    *string      `json:"location"`
	Campus      *string      `json:"campus" validate:"required"`
	Meetings    []Meeting    `json:"meetings" validate:"dive"`
	Recitations []Recitation `json:"recitations,omitempty" validate:"dive"`
}

// Recitation is a sub-session attached to a section. Campus is optional and
// falls back to the section's campus.
type Recitation struct {
	Location *string   `json:"location"`
	Campus   *string   `json:"campus,omitempty"`
	Meetings []Meeting `json:"meetings" validate:"dive"`
}

// Meeting is one dated occurrence of a section. BeginDate uses the layout
// "2006-01-02 15:04:05".
type Meeting struct {
	BeginDate       string `json:"beginDate" validate:"required"`
	MinutesDuration *int   `json:"minutesDuration" validate:"required,min=0"`
}
