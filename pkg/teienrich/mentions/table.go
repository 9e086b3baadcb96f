package mentions

// Mention describes one reference from an edition document to an entity.
// SecondaryTitle and Date are empty when no selector was configured for them.
type Mention struct {
	DocURI         string
	DocPath        string
	DocTitle       string
	DocID          string
	DocDate        string
	SecondaryTitle string
}

// Table maps entity ids to the mentions pointing at them
type Table struct {
	order []string
	byID  map[string][]Mention
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{byID: make(map[string][]Mention)}
}

// Add appends m to the mentions of id
func (t *Table) Add(id string, m Mention) {
	if _, ok := t.byID[id]; !ok {
		t.order = append(t.order, id)
	}
	t.byID[id] = append(t.byID[id], m)
}

// Get returns the mentions of id in insertion order
func (t *Table) Get(id string) []Mention {
	return t.byID[id]
}

// IDs returns the mentioned ids in order of first insertion
func (t *Table) IDs() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of distinct mentioned ids
func (t *Table) Len() int {
	return len(t.order)
}
