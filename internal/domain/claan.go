package domain

import "strings"

// Claan is one of the fixed competing groups. Membership of the set is part
// of the domain, not data: claans are never created or deleted at runtime.
type Claan string

const (
	ClaanEarthStriders  Claan = "EARTH_STRIDERS"
	ClaanFireDancers    Claan = "FIRE_DANCERS"
	ClaanThunderWalkers Claan = "THUNDER_WALKERS"
	ClaanWaveRiders     Claan = "WAVE_RIDERS"
	ClaanBeastRunners   Claan = "BEAST_RUNNERS"
	ClaanIronStalkers   Claan = "IRON_STALKERS"
)

func Claans() []Claan {
	return []Claan{
		ClaanEarthStriders,
		ClaanFireDancers,
		ClaanThunderWalkers,
		ClaanWaveRiders,
		ClaanBeastRunners,
		ClaanIronStalkers,
	}
}

func (c Claan) IsValid() bool {
	switch c {
	case ClaanEarthStriders, ClaanFireDancers, ClaanThunderWalkers,
		ClaanWaveRiders, ClaanBeastRunners, ClaanIronStalkers:
		return true
	default:
		return false
	}
}

// Ticker derives the instrument ticker from the claan name: EARTH_STRIDERS
// trades as EARTH.
func (c Claan) Ticker() string {
	name, _, _ := strings.Cut(string(c), "_")
	return name
}

// DisplayName returns the human form, e.g. "Earth Striders".
func (c Claan) DisplayName() string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
