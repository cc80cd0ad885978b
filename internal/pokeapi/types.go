package pokeapi

// NamedResource is the {name, url} pair the API uses for every reference.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type listResponse struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NamedResource `json:"results"`
}

// indexResponse is the shared shape of /type/{name} and /ability/{name}.
type indexResponse struct {
	Pokemon []struct {
		Pokemon NamedResource `json:"pokemon"`
	} `json:"pokemon"`
}

// ListEntry is one row of the complete name listing.
type ListEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ListPage is one page of the raw listing.
type ListPage struct {
	Entries  []ListEntry `json:"entries"`
	Count    int         `json:"count"`
	Next     string      `json:"next,omitempty"`
	Previous string      `json:"previous,omitempty"`
	Limit    int         `json:"limit"`
	Offset   int         `json:"offset"`
}

// Detail is the /pokemon/{id} payload, reduced to the fields the explorer reads.
type Detail struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	Types     []TypeSlot    `json:"types"`
	Stats     []StatEntry   `json:"stats"`
	Abilities []AbilitySlot `json:"abilities"`
	Species   NamedResource `json:"species"`
}

type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

type StatEntry struct {
	BaseStat int           `json:"base_stat"`
	Stat     NamedResource `json:"stat"`
}

type AbilitySlot struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

// SpeciesID returns the id parsed from the species reference, or 0.
func (d *Detail) SpeciesID() int {
	id, err := IDFromURL(d.Species.URL)
	if err != nil {
		return 0
	}
	return id
}
