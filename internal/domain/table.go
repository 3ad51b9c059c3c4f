package domain

// Table is one entry of the compiled-in floor catalog. The catalog is
// fixed for the lifetime of the process; tables are referenced everywhere
// else by their ID string.
type Table struct {
	ID        string
	Room      string
	Seats     int
	Placement string
}

// DefaultCatalog returns the restaurant floor: two rooms with a 2-, 4-
// and 6-seat table each.
func DefaultCatalog() []Table {
	return []Table{
		{ID: "T12", Room: "ROOM1", Seats: 2, Placement: "WINDOW"},
		{ID: "T22", Room: "ROOM2", Seats: 2, Placement: "ENTRANCE"},
		{ID: "T14", Room: "ROOM1", Seats: 4, Placement: "FIREPLACE"},
		{ID: "T24", Room: "ROOM2", Seats: 4, Placement: "ENTRANCE"},
		{ID: "T16", Room: "ROOM1", Seats: 6, Placement: "WINDOW"},
		{ID: "T26", Room: "ROOM2", Seats: 6, Placement: "FIREPLACE"},
	}
}

// RequiredSeats rounds a party size up to the nearest even number. All
// tables seat an even number of guests, so a party of 3 needs a 4-seat
// table while a party of 2 needs exactly a 2-seat one.
func RequiredSeats(people int) int {
	if people%2 != 0 {
		return people + 1
	}
	return people
}

// TableByID resolves a table id against a catalog. The second return
// value is false when the id is not part of the catalog.
func TableByID(catalog []Table, id string) (Table, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Table{}, false
}
