package entities

// Family is the back matter list an authority entity belongs to
type Family int

const (
	Unclassified Family = iota
	Person
	Place
	Organization
	Bibliographic
	Event
	GenericItem
)

// suffixRules are checked in order against the element's local name.
var suffixRules = []struct {
	suffix string
	family Family
}{
	{"person", Person},
	{"place", Place},
	{"org", Organization},
	{"bibl", Bibliographic},
	{"biblStruct", Bibliographic},
	{"item", GenericItem},
	{"event", Event},
}

var listTags = map[Family]string{
	Person:        "listPerson",
	Place:         "listPlace",
	Organization:  "listOrg",
	Bibliographic: "listBibl",
	Event:         "listEvent",
	GenericItem:   "list",
}

var familyNames = map[Family]string{
	Unclassified:  "unclassified",
	Person:        "person",
	Place:         "place",
	Organization:  "organization",
	Bibliographic: "bibliographic",
	Event:         "event",
	GenericItem:   "item",
}

// Classify maps an element local name to its family
func Classify(localName string) Family {
	for _, r := range suffixRules {
		if len(localName) >= len(r.suffix) && localName[len(localName)-len(r.suffix):] == r.suffix {
			return r.family
		}
	}
	return Unclassified
}

// Families returns the classified families in back matter order
func Families() []Family {
	return []Family{Person, Place, Organization, Bibliographic, Event, GenericItem}
}

// ListTag returns the TEI list element that groups the family
func (f Family) ListTag() string {
	return listTags[f]
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return "unknown"
}
