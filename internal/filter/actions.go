package filter

// ActionKind enumerates every criteria update. Each kind has exactly one
// handler in Reduce; there is no overloaded scalar-or-array entry point and
// no fallthrough between handlers.
type ActionKind int

const (
	ActReplaceBrands ActionKind = iota
	ActToggleBrand
	ActReplaceCategories
	ActToggleCategory
	ActSetPriceRange
	ActSetSearch
	ActClear
)

type Action struct {
	Kind  ActionKind
	Names []string // ActReplaceBrands, ActReplaceCategories
	Name  string   // ActToggleBrand, ActToggleCategory
	Min   float64  // ActSetPriceRange
	Max   float64
	Query string // ActSetSearch
}

func ReplaceBrands(names []string) Action     { return Action{Kind: ActReplaceBrands, Names: names} }
func ToggleBrand(name string) Action          { return Action{Kind: ActToggleBrand, Name: name} }
func ReplaceCategories(names []string) Action { return Action{Kind: ActReplaceCategories, Names: names} }
func ToggleCategory(name string) Action       { return Action{Kind: ActToggleCategory, Name: name} }
func SetPriceRange(min, max float64) Action   { return Action{Kind: ActSetPriceRange, Min: min, Max: max} }
func SetSearch(query string) Action           { return Action{Kind: ActSetSearch, Query: query} }
func Clear() Action                           { return Action{Kind: ActClear} }

// Reduce applies one action to the criteria and returns the new value. The
// input is never mutated.
func Reduce(c Criteria, a Action) Criteria {
	switch a.Kind {
	case ActReplaceBrands:
		c.Brands = cloneSet(a.Names)
	case ActToggleBrand:
		c.Brands = toggle(c.Brands, a.Name)
	case ActReplaceCategories:
		c.Categories = cloneSet(a.Names)
	case ActToggleCategory:
		c.Categories = toggle(c.Categories, a.Name)
	case ActSetPriceRange:
		c.PriceMin, c.PriceMax = a.Min, a.Max
	case ActSetSearch:
		c.Search = a.Query
	case ActClear:
		c = Criteria{}
	}
	return c
}

// toggle adds name when absent and removes it when present.
func toggle(set []string, name string) []string {
	out := make([]string, 0, len(set)+1)
	found := false
	for _, s := range set {
		if s == name {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, name)
	}
	return out
}

func cloneSet(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
