package search

// Filter carries the high-level filter intents a caller may attach to a
// query: an anchored URL prefix, an exact (case-sensitive) section name, or
// both. When both are present the semantics are a logical AND.
type Filter struct {
	urlPrefix string
	section   string
}

// NewFilter creates a Filter. Empty strings mean "no constraint".
func NewFilter(urlPrefix, section string) Filter {
	return Filter{urlPrefix: urlPrefix, section: section}
}

// URLPrefix returns the source-URL prefix constraint, or "".
func (f Filter) URLPrefix() string { return f.urlPrefix }

// Section returns the exact section name constraint, or "".
func (f Filter) Section() string { return f.section }

// IsEmpty reports whether no constraints are set.
func (f Filter) IsEmpty() bool { return f.urlPrefix == "" && f.section == "" }
