// Package fortune serves the divination endpoints. Destiny, numerology,
// tarot, and dream lookups are computed by the backend; the zodiac lookup
// is a local rule table.
package fortune

// Genders accepted by the destiny reading.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Tarot picks.
const (
	minCards       = 1
	maxCards       = 10
	minQuestionLen = 3
	maxQuestionLen = 500
)

// DestinyRequest is the body of POST /api/destiny.
type DestinyRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	BirthTime string `json:"birthTime,omitempty"`
	Gender    string `json:"gender"`
}

// NumerologyRequest is the body of POST /api/numerology.
type NumerologyRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
}

// TarotRequest is the body of POST /api/tarot.
type TarotRequest struct {
	Question string `json:"question"`
	CardIDs  []int  `json:"cardIds"`
}

// DreamQuery is a dream dictionary search.
type DreamQuery struct {
	Q        string
	Page     int
	PageSize int
}

// Zodiac is the local answer of GET /api/zodiac. Keys are stable
// identifiers, names are translated.
type Zodiac struct {
	BirthDate string `json:"birthDate"`

	Sign     string `json:"sign"`
	SignName string `json:"signName"`

	Animal     string `json:"animal"`
	AnimalName string `json:"animalName"`
	CanChi     string `json:"canChi"`
	LunarYear  int    `json:"lunarYear"`

	Element     string `json:"element"`
	ElementName string `json:"elementName"`
}
