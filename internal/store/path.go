// internal/store/path.go
package store

import "strings"

// Collection names of the ledger hierarchy, root to leaf.
const (
	ColUsers   = "users"
	ColYears   = "years"
	ColDays    = "days"
	ColVisits  = "houseVisits"
	ColEntries = "entries"
)

// Path addresses a node in the document tree as alternating
// collection/id segments, e.g. users/u1/years/y1/days/d1.
// An even number of segments addresses a document, an odd number a
// collection.
type Path []string

func (p Path) String() string { return strings.Join(p, "/") }

// IsDoc reports whether the path addresses a document rather than a
// collection.
func (p Path) IsDoc() bool { return len(p) > 0 && len(p)%2 == 0 }

// ID returns the last segment (the document id for a document path).
func (p Path) ID() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Collection returns the path of the named subcollection of a document.
func (p Path) Collection(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Doc returns the path of the identified document in a collection.
func (p Path) Doc(id string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, id)
}

// ParentDoc returns the enclosing document of a document path, e.g. the
// day document for a visit document. It returns nil at the tree root.
func (p Path) ParentDoc() Path {
	if len(p) < 4 {
		return nil
	}
	out := make(Path, len(p)-2)
	copy(out, p[:len(p)-2])
	return out
}

// UserDoc returns the path of a user's root document.
func UserDoc(uid string) Path { return Path{ColUsers, uid} }

// YearsCol returns the path of a user's years collection.
func YearsCol(uid string) Path { return UserDoc(uid).Collection(ColYears) }

// YearDoc returns the path of a single year document.
func YearDoc(uid, yearID string) Path { return YearsCol(uid).Doc(yearID) }

// DaysCol returns the path of a year's days collection.
func DaysCol(uid, yearID string) Path { return YearDoc(uid, yearID).Collection(ColDays) }

// DayDoc returns the path of a single day document.
func DayDoc(uid, yearID, dayID string) Path { return DaysCol(uid, yearID).Doc(dayID) }

// VisitsCol returns the path of a day's house-visit collection.
func VisitsCol(uid, yearID, dayID string) Path {
	return DayDoc(uid, yearID, dayID).Collection(ColVisits)
}

// VisitDoc returns the path of a single house-visit document.
func VisitDoc(uid, yearID, dayID, visitID string) Path {
	return VisitsCol(uid, yearID, dayID).Doc(visitID)
}

// EntriesCol returns the path of a visit's entries collection.
func EntriesCol(uid, yearID, dayID, visitID string) Path {
	return VisitDoc(uid, yearID, dayID, visitID).Collection(ColEntries)
}

// EntryDoc returns the path of a single entry document.
func EntryDoc(uid, yearID, dayID, visitID, entryID string) Path {
	return EntriesCol(uid, yearID, dayID, visitID).Doc(entryID)
}
