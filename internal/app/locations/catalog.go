package locations

import (
	"strings"
)

// GroupKind decides how many member cities a named area expands into.
type GroupKind string

const (
	GroupState   GroupKind = "state"
	GroupCountry GroupKind = "country"
	GroupRegion  GroupKind = "region"
	GroupGlobal  GroupKind = "global"
)

// City is a concrete, queryable destination.
type City struct {
	ID      string
	Name    string
	Country string
	Aliases []string
}

// Group is a named area that expands into representative cities, most popular first.
type Group struct {
	Name    string
	Kind    GroupKind
	Aliases []string
	Members []string
}

type entry struct {
	display string
	city    *City
	group   *Group
}

// Catalog is the static gazetteer backing location recognition and expansion.
type Catalog struct {
	cities   map[string]*City
	aliases  map[string]entry
	global   *Group
	maxWords int
}

// NewCatalog indexes cities and groups by lowercase alias.
func NewCatalog(cities []City, groups []Group) *Catalog {
	c := &Catalog{
		cities:  make(map[string]*City, len(cities)),
		aliases: make(map[string]entry, len(cities)*3),
	}
	for i := range cities {
		city := &cities[i]
		c.cities[city.ID] = city
		c.register(city.Name, entry{display: city.Name, city: city})
		for _, alias := range city.Aliases {
			c.register(alias, entry{display: city.Name, city: city})
		}
	}
	for i := range groups {
		group := &groups[i]
		if group.Kind == GroupGlobal && c.global == nil {
			c.global = group
		}
		c.register(group.Name, entry{display: group.Name, group: group})
		for _, alias := range group.Aliases {
			c.register(alias, entry{display: group.Name, group: group})
		}
	}
	return c
}

func (c *Catalog) register(alias string, e entry) {
	key := aliasKey(alias)
	if key == "" {
		return
	}
	// first registration wins so city names shadow same-named states
	if _, exists := c.aliases[key]; exists {
		return
	}
	c.aliases[key] = e
	if words := len(strings.Fields(key)); words > c.maxWords {
		c.maxWords = words
	}
}

// Known reports whether the phrase is a recognized alias and returns its display name.
func (c *Catalog) Known(phrase string) (string, bool) {
	e, ok := c.aliases[aliasKey(phrase)]
	if !ok {
		return "", false
	}
	return e.display, true
}

// MaxAliasWords is the word count of the longest alias.
func (c *Catalog) MaxAliasWords() int {
	return c.maxWords
}

func (c *Catalog) lookup(phrase string) (entry, bool) {
	e, ok := c.aliases[aliasKey(phrase)]
	return e, ok
}

func (c *Catalog) city(id string) (*City, bool) {
	city, ok := c.cities[id]
	return city, ok
}

func aliasKey(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

// DefaultCatalog returns the bundled gazetteer.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultCities(), defaultGroups())
}

func defaultCities() []City {
	return []City{
		{ID: "new-york-us", Name: "New York", Country: "United States", Aliases: []string{"new york city", "nyc", "manhattan", "brooklyn"}},
		{ID: "los-angeles-us", Name: "Los Angeles", Country: "United States", Aliases: []string{"hollywood", "santa monica"}},
		{ID: "san-francisco-us", Name: "San Francisco", Country: "United States", Aliases: []string{"sf", "bay area"}},
		{ID: "san-diego-us", Name: "San Diego", Country: "United States"},
		{ID: "miami-us", Name: "Miami", Country: "United States", Aliases: []string{"miami beach"}},
		{ID: "orlando-us", Name: "Orlando", Country: "United States"},
		{ID: "chicago-us", Name: "Chicago", Country: "United States"},
		{ID: "boston-us", Name: "Boston", Country: "United States"},
		{ID: "seattle-us", Name: "Seattle", Country: "United States"},
		{ID: "austin-us", Name: "Austin", Country: "United States"},
		{ID: "houston-us", Name: "Houston", Country: "United States"},
		{ID: "dallas-us", Name: "Dallas", Country: "United States"},
		{ID: "san-antonio-us", Name: "San Antonio", Country: "United States"},
		{ID: "las-vegas-us", Name: "Las Vegas", Country: "United States", Aliases: []string{"vegas"}},
		{ID: "denver-us", Name: "Denver", Country: "United States"},
		{ID: "aspen-us", Name: "Aspen", Country: "United States"},
		{ID: "nashville-us", Name: "Nashville", Country: "United States"},
		{ID: "new-orleans-us", Name: "New Orleans", Country: "United States", Aliases: []string{"nola"}},
		{ID: "honolulu-us", Name: "Honolulu", Country: "United States", Aliases: []string{"oahu", "waikiki"}},
		{ID: "maui-us", Name: "Maui", Country: "United States"},
		{ID: "lake-tahoe-us", Name: "Lake Tahoe", Country: "United States", Aliases: []string{"tahoe"}},
		{ID: "toronto-ca", Name: "Toronto", Country: "Canada"},
		{ID: "vancouver-ca", Name: "Vancouver", Country: "Canada"},
		{ID: "montreal-ca", Name: "Montreal", Country: "Canada"},
		{ID: "mexico-city-mx", Name: "Mexico City", Country: "Mexico", Aliases: []string{"cdmx"}},
		{ID: "cancun-mx", Name: "Cancun", Country: "Mexico", Aliases: []string{"cancún"}},
		{ID: "tulum-mx", Name: "Tulum", Country: "Mexico"},
		{ID: "london-gb", Name: "London", Country: "United Kingdom"},
		{ID: "edinburgh-gb", Name: "Edinburgh", Country: "United Kingdom"},
		{ID: "paris-fr", Name: "Paris", Country: "France"},
		{ID: "lyon-fr", Name: "Lyon", Country: "France"},
		{ID: "barcelona-es", Name: "Barcelona", Country: "Spain"},
		{ID: "madrid-es", Name: "Madrid", Country: "Spain"},
		{ID: "rome-it", Name: "Rome", Country: "Italy", Aliases: []string{"roma"}},
		{ID: "florence-it", Name: "Florence", Country: "Italy", Aliases: []string{"firenze"}},
		{ID: "amsterdam-nl", Name: "Amsterdam", Country: "Netherlands"},
		{ID: "berlin-de", Name: "Berlin", Country: "Germany"},
		{ID: "munich-de", Name: "Munich", Country: "Germany"},
		{ID: "lisbon-pt", Name: "Lisbon", Country: "Portugal", Aliases: []string{"lisboa"}},
		{ID: "prague-cz", Name: "Prague", Country: "Czech Republic"},
		{ID: "vienna-at", Name: "Vienna", Country: "Austria"},
		{ID: "athens-gr", Name: "Athens", Country: "Greece"},
		{ID: "santorini-gr", Name: "Santorini", Country: "Greece"},
		{ID: "dublin-ie", Name: "Dublin", Country: "Ireland"},
		{ID: "copenhagen-dk", Name: "Copenhagen", Country: "Denmark"},
		{ID: "stockholm-se", Name: "Stockholm", Country: "Sweden"},
		{ID: "oslo-no", Name: "Oslo", Country: "Norway"},
		{ID: "tokyo-jp", Name: "Tokyo", Country: "Japan"},
		{ID: "kyoto-jp", Name: "Kyoto", Country: "Japan"},
		{ID: "bangkok-th", Name: "Bangkok", Country: "Thailand"},
		{ID: "phuket-th", Name: "Phuket", Country: "Thailand"},
		{ID: "bali-id", Name: "Bali", Country: "Indonesia", Aliases: []string{"ubud", "seminyak"}},
		{ID: "singapore-sg", Name: "Singapore", Country: "Singapore"},
		{ID: "seoul-kr", Name: "Seoul", Country: "South Korea"},
		{ID: "hong-kong-hk", Name: "Hong Kong", Country: "Hong Kong"},
		{ID: "mumbai-in", Name: "Mumbai", Country: "India"},
		{ID: "goa-in", Name: "Goa", Country: "India"},
		{ID: "hanoi-vn", Name: "Hanoi", Country: "Vietnam"},
		{ID: "dubai-ae", Name: "Dubai", Country: "United Arab Emirates"},
		{ID: "istanbul-tr", Name: "Istanbul", Country: "Turkey"},
		{ID: "sydney-au", Name: "Sydney", Country: "Australia"},
		{ID: "melbourne-au", Name: "Melbourne", Country: "Australia"},
		{ID: "auckland-nz", Name: "Auckland", Country: "New Zealand"},
		{ID: "queenstown-nz", Name: "Queenstown", Country: "New Zealand"},
		{ID: "rio-de-janeiro-br", Name: "Rio de Janeiro", Country: "Brazil", Aliases: []string{"rio"}},
		{ID: "buenos-aires-ar", Name: "Buenos Aires", Country: "Argentina"},
		{ID: "lima-pe", Name: "Lima", Country: "Peru"},
		{ID: "cartagena-co", Name: "Cartagena", Country: "Colombia"},
		{ID: "medellin-co", Name: "Medellin", Country: "Colombia", Aliases: []string{"medellín"}},
		{ID: "cape-town-za", Name: "Cape Town", Country: "South Africa"},
		{ID: "marrakech-ma", Name: "Marrakech", Country: "Morocco", Aliases: []string{"marrakesh"}},
		{ID: "nairobi-ke", Name: "Nairobi", Country: "Kenya"},
		{ID: "cairo-eg", Name: "Cairo", Country: "Egypt"},
		{ID: "san-juan-pr", Name: "San Juan", Country: "Puerto Rico"},
		{ID: "nassau-bs", Name: "Nassau", Country: "Bahamas"},
		{ID: "punta-cana-do", Name: "Punta Cana", Country: "Dominican Republic"},
	}
}

func defaultGroups() []Group {
	return []Group{
		{Name: "Texas", Kind: GroupState, Aliases: []string{"tx"}, Members: []string{"austin-us", "houston-us", "dallas-us", "san-antonio-us"}},
		{Name: "California", Kind: GroupState, Aliases: []string{"socal", "norcal"}, Members: []string{"los-angeles-us", "san-francisco-us", "san-diego-us", "lake-tahoe-us"}},
		{Name: "Florida", Kind: GroupState, Members: []string{"miami-us", "orlando-us"}},
		{Name: "Colorado", Kind: GroupState, Members: []string{"denver-us", "aspen-us"}},
		{Name: "Hawaii", Kind: GroupState, Members: []string{"honolulu-us", "maui-us"}},
		{Name: "Nevada", Kind: GroupState, Members: []string{"las-vegas-us", "lake-tahoe-us"}},
		{Name: "Louisiana", Kind: GroupState, Members: []string{"new-orleans-us"}},
		{Name: "Tennessee", Kind: GroupState, Members: []string{"nashville-us"}},
		{Name: "Illinois", Kind: GroupState, Members: []string{"chicago-us"}},
		{Name: "Massachusetts", Kind: GroupState, Members: []string{"boston-us"}},
		{Name: "United States", Kind: GroupCountry, Aliases: []string{"usa", "america", "united states of america", "the states"}, Members: []string{"new-york-us", "los-angeles-us", "miami-us", "chicago-us"}},
		{Name: "Canada", Kind: GroupCountry, Members: []string{"toronto-ca", "vancouver-ca", "montreal-ca"}},
		{Name: "Mexico", Kind: GroupCountry, Members: []string{"cancun-mx", "mexico-city-mx", "tulum-mx"}},
		{Name: "United Kingdom", Kind: GroupCountry, Aliases: []string{"uk", "england", "britain", "great britain", "scotland"}, Members: []string{"london-gb", "edinburgh-gb"}},
		{Name: "France", Kind: GroupCountry, Members: []string{"paris-fr", "lyon-fr"}},
		{Name: "Spain", Kind: GroupCountry, Members: []string{"barcelona-es", "madrid-es"}},
		{Name: "Italy", Kind: GroupCountry, Members: []string{"rome-it", "florence-it"}},
		{Name: "Germany", Kind: GroupCountry, Members: []string{"berlin-de", "munich-de"}},
		{Name: "Portugal", Kind: GroupCountry, Members: []string{"lisbon-pt"}},
		{Name: "Netherlands", Kind: GroupCountry, Aliases: []string{"holland"}, Members: []string{"amsterdam-nl"}},
		{Name: "Greece", Kind: GroupCountry, Members: []string{"athens-gr", "santorini-gr"}},
		{Name: "Ireland", Kind: GroupCountry, Members: []string{"dublin-ie"}},
		{Name: "Japan", Kind: GroupCountry, Members: []string{"tokyo-jp", "kyoto-jp"}},
		{Name: "Thailand", Kind: GroupCountry, Members: []string{"bangkok-th", "phuket-th"}},
		{Name: "Indonesia", Kind: GroupCountry, Members: []string{"bali-id"}},
		{Name: "South Korea", Kind: GroupCountry, Aliases: []string{"korea"}, Members: []string{"seoul-kr"}},
		{Name: "India", Kind: GroupCountry, Members: []string{"mumbai-in", "goa-in"}},
		{Name: "United Arab Emirates", Kind: GroupCountry, Aliases: []string{"uae", "emirates"}, Members: []string{"dubai-ae"}},
		{Name: "Australia", Kind: GroupCountry, Members: []string{"sydney-au", "melbourne-au"}},
		{Name: "New Zealand", Kind: GroupCountry, Members: []string{"auckland-nz", "queenstown-nz"}},
		{Name: "Brazil", Kind: GroupCountry, Members: []string{"rio-de-janeiro-br"}},
		{Name: "Argentina", Kind: GroupCountry, Members: []string{"buenos-aires-ar"}},
		{Name: "Colombia", Kind: GroupCountry, Members: []string{"cartagena-co", "medellin-co"}},
		{Name: "South Africa", Kind: GroupCountry, Members: []string{"cape-town-za"}},
		{Name: "Morocco", Kind: GroupCountry, Members: []string{"marrakech-ma"}},
		{Name: "Europe", Kind: GroupRegion, Aliases: []string{"european", "western europe"}, Members: []string{"london-gb", "paris-fr", "barcelona-es", "rome-it", "amsterdam-nl", "lisbon-pt", "prague-cz"}},
		{Name: "Asia", Kind: GroupRegion, Aliases: []string{"asian", "southeast asia"}, Members: []string{"tokyo-jp", "bangkok-th", "bali-id", "singapore-sg", "seoul-kr", "hong-kong-hk"}},
		{Name: "North America", Kind: GroupRegion, Members: []string{"new-york-us", "los-angeles-us", "toronto-ca", "mexico-city-mx", "miami-us"}},
		{Name: "South America", Kind: GroupRegion, Aliases: []string{"latin america"}, Members: []string{"rio-de-janeiro-br", "buenos-aires-ar", "lima-pe", "cartagena-co", "medellin-co"}},
		{Name: "Africa", Kind: GroupRegion, Members: []string{"cape-town-za", "marrakech-ma", "nairobi-ke", "cairo-eg"}},
		{Name: "Oceania", Kind: GroupRegion, Aliases: []string{"australasia", "down under"}, Members: []string{"sydney-au", "melbourne-au", "auckland-nz", "queenstown-nz"}},
		{Name: "Caribbean", Kind: GroupRegion, Aliases: []string{"the caribbean"}, Members: []string{"san-juan-pr", "nassau-bs", "punta-cana-do", "cancun-mx"}},
		{Name: "Middle East", Kind: GroupRegion, Members: []string{"dubai-ae", "istanbul-tr", "cairo-eg"}},
		{Name: "Mediterranean", Kind: GroupRegion, Members: []string{"barcelona-es", "rome-it", "santorini-gr", "athens-gr"}},
		{Name: "Scandinavia", Kind: GroupRegion, Aliases: []string{"nordics"}, Members: []string{"copenhagen-dk", "stockholm-se", "oslo-no"}},
		{
			Name:    "Worldwide",
			Kind:    GroupGlobal,
			Aliases: []string{"global", "globally", "anywhere", "around the world", "all over the world", "across the world", "multiple countries", "internationally", "international", "everywhere"},
			Members: []string{"new-york-us", "london-gb", "paris-fr", "tokyo-jp", "sydney-au", "barcelona-es", "bali-id", "cape-town-za", "rio-de-janeiro-br", "dubai-ae"},
		},
	}
}
