package recovery

// Milestone categories.
const (
	CategoryEarly      = "early"
	CategoryFoundation = "foundation"
	CategoryExtended   = "extended"
	CategoryAnnual     = "annual"
	CategoryCustom     = "custom"
)

// StandardMilestone is one entry of the built-in milestone catalogue.
type StandardMilestone struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	DaysRequired int    `json:"daysRequired"`
	Category     string `json:"category"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
}

var standardMilestones = []StandardMilestone{
	{ID: "24-hours", Title: "24 Hours", Description: "One day at a time", DaysRequired: 1, Icon: "sunrise", Color: "#4CAF50"},
	{ID: "1-week", Title: "1 Week", Description: "Seven days strong", DaysRequired: 7, Icon: "calendar", Color: "#8BC34A"},
	{ID: "30-days", Title: "30 Days", Description: "A full month", DaysRequired: 30, Icon: "star", Color: "#03A9F4"},
	{ID: "60-days", Title: "60 Days", Description: "Two months of progress", DaysRequired: 60, Icon: "star", Color: "#2196F3"},
	{ID: "90-days", Title: "90 Days", Description: "Ninety days, a new foundation", DaysRequired: 90, Icon: "medal", Color: "#3F51B5"},
	{ID: "6-months", Title: "6 Months", Description: "Half a year", DaysRequired: 180, Icon: "medal", Color: "#673AB7"},
	{ID: "9-months", Title: "9 Months", Description: "Three quarters of a year", DaysRequired: 270, Icon: "medal", Color: "#9C27B0"},
	{ID: "1-year", Title: "1 Year", Description: "A full year", DaysRequired: 365, Icon: "trophy", Color: "#FFC107"},
	{ID: "2-years", Title: "2 Years", Description: "Two years", DaysRequired: 730, Icon: "trophy", Color: "#FF5722"},
	{ID: "5-years", Title: "5 Years", Description: "Five years", DaysRequired: 1825, Icon: "crown", Color: "#E91E63"},
	{ID: "10-years", Title: "10 Years", Description: "A decade", DaysRequired: 3650, Icon: "crown", Color: "#F44336"},
}

func init() {
	for i := range standardMilestones {
		standardMilestones[i].Category = CategoryFor(standardMilestones[i].DaysRequired)
	}
}

// StandardMilestones returns a copy of the catalogue, ascending by days.
func StandardMilestones() []StandardMilestone {
	out := make([]StandardMilestone, len(standardMilestones))
	copy(out, standardMilestones)
	return out
}

// LookupStandard finds a catalogue entry by id.
func LookupStandard(id string) (StandardMilestone, bool) {
	for _, m := range standardMilestones {
		if m.ID == id {
			return m, true
		}
	}
	return StandardMilestone{}, false
}

// CategoryFor buckets a day count.
func CategoryFor(days int) string {
	switch {
	case days < 30:
		return CategoryEarly
	case days < 180:
		return CategoryFoundation
	case days < 365:
		return CategoryExtended
	default:
		return CategoryAnnual
	}
}

// IsCategory reports whether c is a known milestone category.
func IsCategory(c string) bool {
	switch c {
	case CategoryEarly, CategoryFoundation, CategoryExtended, CategoryAnnual, CategoryCustom:
		return true
	}
	return false
}
