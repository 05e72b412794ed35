package models

// Category - категория зачёта (например, "мужчины 18+", "семейные").
// Name хранит название на языке по умолчанию, переводы лежат в
// category_translations и подставляются по запрошенному языку.
type Category struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type CategoryTranslation struct {
	CategoryID int    `json:"category_id" db:"category_id"`
	Lang       string `json:"lang" db:"lang"`
	Name       string `json:"name" db:"name"`
}
