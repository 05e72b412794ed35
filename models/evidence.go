package models

// EvidenceImage - фотоподтверждение отметки. Принадлежит ровно одному
// событию и удаляется вместе с ним.
type EvidenceImage struct {
	ID         int     `json:"id" db:"id"`
	StorageKey string  `json:"-" db:"storage_key"`
	URL        *string `json:"url,omitempty" db:"-"`
}
