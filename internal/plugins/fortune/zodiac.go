package fortune

import "time"

// signStart is the first day of a western sign.
type signStart struct {
	month time.Month
	day   int
	sign  string
}

// signStarts is ordered by date within the year. Dates before the first
// entry belong to capricorn.
var signStarts = []signStart{
	{time.January, 20, "aquarius"},
	{time.February, 19, "pisces"},
	{time.March, 21, "aries"},
	{time.April, 20, "taurus"},
	{time.May, 21, "gemini"},
	{time.June, 21, "cancer"},
	{time.July, 23, "leo"},
	{time.August, 23, "virgo"},
	{time.September, 23, "libra"},
	{time.October, 23, "scorpio"},
	{time.November, 22, "sagittarius"},
	{time.December, 22, "capricorn"},
}

// WesternSign returns the sun sign key for a birth date.
func WesternSign(d time.Time) string {
	sign := "capricorn"
	for _, s := range signStarts {
		if d.Month() > s.month || (d.Month() == s.month && d.Day() >= s.day) {
			sign = s.sign
		}
	}
	return sign
}

// Heavenly stems and earthly branches in cycle order. 1984 is Giáp Tý.
var (
	stems    = [10]string{"Giáp", "Ất", "Bính", "Đinh", "Mậu", "Kỷ", "Canh", "Tân", "Nhâm", "Quý"}
	branches = [12]string{"Tý", "Sửu", "Dần", "Mão", "Thìn", "Tỵ", "Ngọ", "Mùi", "Thân", "Dậu", "Tuất", "Hợi"}
	animals  = [12]string{"rat", "buffalo", "tiger", "cat", "dragon", "snake", "horse", "goat", "monkey", "rooster", "dog", "pig"}
	elements = [5]string{"wood", "fire", "earth", "metal", "water"}
)

// yearStart is Lập Xuân, the solar term that opens the can-chi year.
// It falls on February 4 in almost every year of interest.
const (
	yearStartMonth = time.February
	yearStartDay   = 4
)

// LunarYear returns the can-chi year a birth date belongs to: dates
// before Lập Xuân count toward the previous year.
func LunarYear(d time.Time) int {
	y := d.Year()
	if d.Month() < yearStartMonth || (d.Month() == yearStartMonth && d.Day() < yearStartDay) {
		y--
	}
	return y
}

// CanChi returns the stem-branch name, animal key, and element key of a
// can-chi year.
func CanChi(year int) (name, animal, element string) {
	s := mod(year-4, 10)
	b := mod(year-4, 12)
	return stems[s] + " " + branches[b], animals[b], elements[s/2]
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// Lookup computes the zodiac answer for a YYYY-MM-DD date. tr translates
// the sign, animal, and element keys.
func Lookup(birthDate string, tr func(key string) string) (*Zodiac, error) {
	d, err := time.Parse(time.DateOnly, birthDate)
	if err != nil {
		return nil, err
	}

	year := LunarYear(d)
	canChi, animal, element := CanChi(year)
	sign := WesternSign(d)

	return &Zodiac{
		BirthDate:   birthDate,
		Sign:        sign,
		SignName:    tr("zodiac.sign." + sign),
		Animal:      animal,
		AnimalName:  tr("zodiac.animal." + animal),
		CanChi:      canChi,
		LunarYear:   year,
		Element:     element,
		ElementName: tr("zodiac.element." + element),
	}, nil
}
