package model

import "time"

// Listing is a single classified ad as presented by a marketplace search.
// Listings are fetched fresh every cycle and discarded after the diff; the
// only durable state is the set of IDs that have already been notified.
type Listing struct {
	Source string
	ID     string
	Title  string
	Price  string
	URL    string
	SeenAt time.Time
}

// Key identifies a listing across cycles. IDs coming out of marketplace
// markup are only unique per site, so the source name is part of the key.
func (l Listing) Key() string {
	return l.Source + "/" + l.ID
}
