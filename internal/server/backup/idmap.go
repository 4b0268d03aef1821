package backup

// IDMap translates identifiers of one collection from the document's id
// space to the ids assigned by the destination store. A map lives for a
// single import run.
type IDMap struct {
	m map[int64]int64
}

func NewIDMap() *IDMap {
	return &IDMap{m: make(map[int64]int64)}
}

func (m *IDMap) Put(oldID, newID int64) {
	m.m[oldID] = newID
}

func (m *IDMap) Lookup(oldID int64) (int64, bool) {
	id, ok := m.m[oldID]
	return id, ok
}

// Optional resolves a nullable reference. Absent stays absent and an
// unresolved id becomes absent.
func (m *IDMap) Optional(oldID *int64) *int64 {
	if oldID == nil {
		return nil
	}
	id, ok := m.m[*oldID]
	if !ok {
		return nil
	}
	return &id
}

func (m *IDMap) Len() int { return len(m.m) }
