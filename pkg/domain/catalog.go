package domain

import "sort"

// Catalog describes what the formation service offers: which states are
// supported, which company types each state offers, which entity endings
// each type allows, and the system defaults used when the caller opts in.
// It is immutable after construction and safe for concurrent reads.
type Catalog struct {
	// TypesByState maps a state code to the company types offered there.
	TypesByState map[string][]string `yaml:"types_by_state"`

	// EndingsByType maps a company type to its allowed entity endings.
	EndingsByType map[string][]string `yaml:"endings_by_type"`

	// DefaultAgents maps a state code to the system default registered
	// agent for that state.
	DefaultAgents map[string]RegisteredAgent `yaml:"default_agents"`

	// DefaultShares is applied when the caller asks for the default
	// share structure.
	DefaultShares ShareStructure `yaml:"default_shares"`

	// MinBaseNameLen/MaxBaseNameLen bound the caller-supplied base name.
	MinBaseNameLen int `yaml:"min_base_name_len"`
	MaxBaseNameLen int `yaml:"max_base_name_len"`

	// MaxFullNameLen bounds the composed base+ending name.
	MaxFullNameLen int `yaml:"max_full_name_len"`

	// MaxAuthorizedShares bounds custom share structures.
	MaxAuthorizedShares int64 `yaml:"max_authorized_shares"`
}

// DefaultCatalog returns the built-in offering: Delaware (LLC and C-Corp)
// and Wyoming (LLC only).
func DefaultCatalog() *Catalog {
	return &Catalog{
		TypesByState: map[string][]string{
			"DE": {"LLC", "C-Corp"},
			"WY": {"LLC"},
		},
		EndingsByType: map[string][]string{
			"LLC":    {"LLC", "L.L.C.", "Limited Liability Company"},
			"C-Corp": {"Inc.", "Incorporated", "Corp.", "Corporation", "Ltd.", "Limited", "Company", "Co."},
		},
		DefaultAgents: map[string]RegisteredAgent{
			"DE": {
				Name:  "Charter Registered Agent Services LLC",
				Email: "agent@charter-agents.example",
				Phone: "+1-302-555-0180",
				Address: Address{
					Line1:      "1209 Orange Street",
					City:       "Wilmington",
					State:      "DE",
					PostalCode: "19801",
					Country:    "US",
				},
				IsDefault: true,
			},
			"WY": {
				Name:  "Charter Registered Agent Services LLC",
				Email: "agent@charter-agents.example",
				Phone: "+1-307-555-0142",
				Address: Address{
					Line1:      "1712 Pioneer Avenue",
					City:       "Cheyenne",
					State:      "WY",
					PostalCode: "82001",
					Country:    "US",
				},
				IsDefault: true,
			},
		},
		DefaultShares: ShareStructure{
			AuthorizedShares: 10_000_000,
			ParValuePerShare: 0.0001,
		},
		MinBaseNameLen:      3,
		MaxBaseNameLen:      200,
		MaxFullNameLen:      245,
		MaxAuthorizedShares: 1_000_000_000,
	}
}

// SupportedStates lists the state codes in the catalog, sorted.
func (c *Catalog) SupportedStates() []string {
	states := make([]string, 0, len(c.TypesByState))
	for s := range c.TypesByState {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

// StateSupported reports whether the state code is offered at all.
func (c *Catalog) StateSupported(state string) bool {
	_, ok := c.TypesByState[state]
	return ok
}

// TypesFor returns the company types offered in a state, or nil.
func (c *Catalog) TypesFor(state string) []string {
	return c.TypesByState[state]
}

// TypeOffered reports whether companyType is available in state.
func (c *Catalog) TypeOffered(state, companyType string) bool {
	for _, t := range c.TypesByState[state] {
		if t == companyType {
			return true
		}
	}
	return false
}

// EndingsFor returns the allowed entity endings for a company type.
func (c *Catalog) EndingsFor(companyType string) []string {
	return c.EndingsByType[companyType]
}

// EndingAllowed reports whether ending is drawn from the allowed set for
// the company type.
func (c *Catalog) EndingAllowed(companyType, ending string) bool {
	for _, e := range c.EndingsByType[companyType] {
		if e == ending {
			return true
		}
	}
	return false
}

// DefaultAgentFor returns the system default registered agent for a
// state, if one is configured.
func (c *Catalog) DefaultAgentFor(state string) (RegisteredAgent, bool) {
	agent, ok := c.DefaultAgents[state]
	return agent, ok
}
