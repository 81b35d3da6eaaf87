package members

import "time"

type Member struct {
	ID        int64
	Number    string // Mxxxx
	FullName  string
	Contact   string
	CreatedAt time.Time
}
