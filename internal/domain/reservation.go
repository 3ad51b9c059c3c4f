package domain

// FindRequest carries the parameters of a table search. It is never
// persisted; a successful booking turns it into a Reservation.
type FindRequest struct {
	Surname string
	People  int
	Date    string
	Hour    string
}

// Reservation is a persisted booking of one table for one slot
// (table, date, hour). The table is referenced by its catalog id, never
// by an in-process value.
type Reservation struct {
	Code    int
	Surname string
	People  int
	Date    string
	Hour    string
	TableID string
}
