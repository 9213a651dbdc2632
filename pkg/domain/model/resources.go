package model

// ResearchItem is a curated research entry surfaced on the dashboard
type ResearchItem struct {
	Title    string `toml:"title" json:"title"`
	URL      string `toml:"url" json:"url"`
	Abstract string `toml:"abstract" json:"abstract"`
	Source   string `toml:"source" json:"source,omitempty"`
	Year     int    `toml:"year" json:"year,omitempty"`
}

// Facility is a treatment facility entry for the state-by-state listing
type Facility struct {
	Name  string `toml:"name" json:"name"`
	City  string `toml:"city" json:"city"`
	State string `toml:"state" json:"state"`
	URL   string `toml:"url" json:"url,omitempty"`
	Phone string `toml:"phone" json:"phone,omitempty"`
}

// ResourceSet holds the curated static content served alongside stories
type ResourceSet struct {
	Research   []ResearchItem `toml:"research"`
	Facilities []Facility     `toml:"facilities"`
}

// FacilitiesByState returns facilities matching the two-letter state code
func (r *ResourceSet) FacilitiesByState(state string) []Facility {
	matched := make([]Facility, 0)
	for _, f := range r.Facilities {
		if f.State == state {
			matched = append(matched, f)
		}
	}
	return matched
}
