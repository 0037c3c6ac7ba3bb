// Package geo translates region codes between the public ITL vocabulary and
// the codes used by the statistics store, and classifies codes by level.
//
// Three ITL1 vocabularies describe the same 12 regions:
//
//	public       UKC … UKN
//	statistical  E12000001 … E12000009, W92000004, S92000003, N92000002
//	derived      TLC … TLN
//
// The store keys ITL1 rows by statistical code. ITL2, ITL3 and LAD codes are
// shared by every vocabulary and pass through unchanged.
package geo

import "strings"

// GeoSchema tags every observation with the geography edition it uses.
const GeoSchema = "UK_ITL_2025"

// Level is a tier of the geographic hierarchy.
type Level string

const (
	LevelITL1 Level = "ITL1"
	LevelITL2 Level = "ITL2"
	LevelITL3 Level = "ITL3"
	LevelLAD  Level = "LAD"
)

// Levels lists the hierarchy from coarsest to finest; fetches visit levels
// in this order.
var Levels = []Level{LevelITL1, LevelITL2, LevelITL3, LevelLAD}

// Table returns the store view holding the latest observations for the level.
func (l Level) Table() string {
	switch l {
	case LevelITL1:
		return "itl1_latest_all"
	case LevelITL2:
		return "itl2_latest_all"
	case LevelITL3:
		return "itl3_latest_all"
	default:
		return "lad_latest_all"
	}
}

func (l Level) String() string { return string(l) }

var statisticalToPublic = map[string]string{
	"E12000001": "UKC",
	"E12000002": "UKD",
	"E12000003": "UKE",
	"E12000004": "UKF",
	"E12000005": "UKG",
	"E12000006": "UKH",
	"E12000007": "UKI",
	"E12000008": "UKJ",
	"E12000009": "UKK",
	"W92000004": "UKL",
	"S92000003": "UKM",
	"N92000002": "UKN",
}

var derivedToPublic = map[string]string{
	"TLC": "UKC",
	"TLD": "UKD",
	"TLE": "UKE",
	"TLF": "UKF",
	"TLG": "UKG",
	"TLH": "UKH",
	"TLI": "UKI",
	"TLJ": "UKJ",
	"TLK": "UKK",
	"TLL": "UKL",
	"TLM": "UKM",
	"TLN": "UKN",
}

var publicToStatistical = invert(statisticalToPublic)

// itl1Prefixes identify statistical ITL1 codes (English regions and the three
// devolved nations).
var itl1Prefixes = []string{"E120", "S920", "W920", "N920"}

const derivedPrefix = "TL"

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// Normalize trims and upper-cases a code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ToInternal maps a public or derived ITL1 code to the statistical code the
// store uses. Any other code is returned unchanged.
func ToInternal(code string) string {
	if stat, ok := publicToStatistical[code]; ok {
		return stat
	}
	if public, ok := derivedToPublic[code]; ok {
		return publicToStatistical[public]
	}
	return code
}

// ToPublic maps a statistical or derived ITL1 code to its UK-prefixed public
// code. Any other code is returned unchanged.
func ToPublic(code string) string {
	if public, ok := statisticalToPublic[code]; ok {
		return public
	}
	if public, ok := derivedToPublic[code]; ok {
		return public
	}
	return code
}

// InferLevel classifies an internal code by its shape alone; there is no
// lookup against a master list.
func InferLevel(code string) Level {
	for _, p := range itl1Prefixes {
		if strings.HasPrefix(code, p) {
			return LevelITL1
		}
	}
	if strings.HasPrefix(code, derivedPrefix) {
		switch len(code) {
		case 3:
			return LevelITL1
		case 4:
			return LevelITL2
		default:
			return LevelITL3
		}
	}
	return LevelLAD
}

// ITL1Codes returns the 12 public ITL1 codes in code order.
func ITL1Codes() []string {
	return []string{"UKC", "UKD", "UKE", "UKF", "UKG", "UKH", "UKI", "UKJ", "UKK", "UKL", "UKM", "UKN"}
}
