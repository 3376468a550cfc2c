package adsb

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Conversion factors
const (
	METERS_PER_NM  = 1852.0  // Meters per nautical mile
	FEET_PER_METER = 3.28084 // Feet per meter
)

// Haversine calculates the distance in meters between two lat/lon points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000 // Earth radius in meters
	rad := math.Pi / 180.0

	lat1Rad := lat1 * rad
	lon1Rad := lon1 * rad
	lat2Rad := lat2 * rad
	lon2Rad := lon2 * rad

	dlon := lon2Rad - lon1Rad
	dlat := lat2Rad - lat1Rad

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// MetersToNM converts meters to nautical miles
func MetersToNM(meters float64) float64 {
	return meters / METERS_PER_NM
}

// FeetToMeters converts feet to meters
func FeetToMeters(feet float64) float64 {
	return feet / FEET_PER_METER
}

// CleanFlightName removes whitespace and null characters from flight names
func CleanFlightName(flight string) string {
	return strings.TrimSpace(strings.ReplaceAll(flight, "\x00", ""))
}

// normalizeHex upper-cases and trims an ICAO hex address
func normalizeHex(hex string) string {
	return strings.ToUpper(strings.TrimSpace(hex))
}

// IsHexCode checks if a string is a valid hex code (ICAO address)
func IsHexCode(s string) bool {
	hexPattern := regexp.MustCompile(`^[0-9a-fA-F]{6}$`)
	return hexPattern.MatchString(s)
}

// --- ICAO to Tail Number Conversion Functions ---

// Constants for ICAO-to-tail number conversion
const (
	icaoSize = 6 // Size of ICAO hex address

	usCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ" // alphabet without I and O
	digitset  = "0123456789"

	caAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	caAlphabetLen   = 26
	caMax3LetterVal = caAlphabetLen * caAlphabetLen * caAlphabetLen // 17576 (for C-Fxxx or C-Gxxx each)
)

var usAllChars = usCharset + digitset

// Precomputed constants for US conversion
var (
	usSuffixSize  int
	usBucket4Size int
	usBucket3Size int
	usBucket2Size int
	usBucket1Size int

	usCharsetLen  int
	usDigitsetLen int
	usAllCharsLen int
)

func init() {
	usCharsetLen = len(usCharset)
	usDigitsetLen = len(digitset)
	usAllCharsLen = len(usAllChars)

	usSuffixSize = 1 + usCharsetLen*(1+usCharsetLen)
	usBucket4Size = 1 + usCharsetLen + usDigitsetLen
	usBucket3Size = usDigitsetLen*usBucket4Size + usSuffixSize
	usBucket2Size = usDigitsetLen*usBucket3Size + usSuffixSize
	usBucket1Size = usDigitsetLen*usBucket2Size + usSuffixSize
}

// getSuffixUS computes the suffix for the US tail number given an offset.
func getSuffixUS(offset int) string {
	if offset == 0 {
		return ""
	}
	char0Idx := (offset - 1) / (usCharsetLen + 1)
	if char0Idx < 0 || char0Idx >= usCharsetLen {
		return fmt.Sprintf("!ERR_IDX_%d!", char0Idx)
	}
	char0 := string(usCharset[char0Idx])

	rem := (offset - 1) % (usCharsetLen + 1)
	if rem == 0 {
		return char0
	}
	if rem-1 < 0 || rem-1 >= usCharsetLen {
		return fmt.Sprintf("!ERR_REM_IDX_%d!", rem-1)
	}
	return char0 + string(usCharset[rem-1])
}

// USIcaoToN converts a US ICAO address to its N-Number.
func USIcaoToN(icaoUpper string) (string, error) {
	valHex := icaoUpper[1:]
	parsedVal, err := strconv.ParseInt(valHex, 16, 64)
	if err != nil {
		return "", fmt.Errorf("failed to parse US ICAO hex '%s': %v", valHex, err)
	}
	idx := int(parsedVal) - 1

	if idx < 0 || idx > 915398 { // Valid US range: A00001 to ADF7C7
		return "", fmt.Errorf("ICAO value %s (idx %d) out of valid range for US N-Number mapping (A00001-ADF7C7)", icaoUpper, idx)
	}

	output := "N"
	dig1 := (idx / usBucket1Size) + 1
	rem1 := idx % usBucket1Size
	output += strconv.Itoa(dig1)

	if rem1 < usSuffixSize {
		return output + getSuffixUS(rem1), nil
	}

	rem1 -= usSuffixSize
	dig2 := rem1 / usBucket2Size
	rem2 := rem1 % usBucket2Size
	output += strconv.Itoa(dig2)

	if rem2 < usSuffixSize {
		return output + getSuffixUS(rem2), nil
	}

	rem2 -= usSuffixSize
	dig3 := rem2 / usBucket3Size
	rem3 := rem2 % usBucket3Size
	output += strconv.Itoa(dig3)

	if rem3 < usSuffixSize {
		return output + getSuffixUS(rem3), nil
	}

	rem3 -= usSuffixSize
	dig4 := rem3 / usBucket4Size
	rem4 := rem3 % usBucket4Size
	output += strconv.Itoa(dig4)

	if rem4 == 0 {
		return output, nil
	}
	if rem4-1 < 0 || rem4-1 >= usAllCharsLen {
		return "", fmt.Errorf("internal error: invalid rem4 index %d for usAllChars (len %d)", rem4-1, usAllCharsLen)
	}
	return output + string(usAllChars[rem4-1]), nil
}

// CAIcaoToN converts a Canadian ICAO address to its Tail Number.
func CAIcaoToN(icaoUpper string) (string, error) {
	valHex := icaoUpper[1:]
	d, err := strconv.ParseInt(valHex, 16, 64)
	if err != nil {
		return "", fmt.Errorf("failed to parse Canadian ICAO hex '%s': %v", valHex, err)
	}

	var prefix string
	dEff := 0

	if d >= 1 && d <= caMax3LetterVal {
		prefix = "C-F"
		dEff = int(d) - 1
	} else if d >= (caMax3LetterVal+1) && d <= (caMax3LetterVal*2) {
		prefix = "C-G"
		dEff = int(d) - 1 - caMax3LetterVal
	} else {
		return "", fmt.Errorf("Canadian ICAO value %s (decimal %d) out of range for C-Fxxx or C-Gxxx mapping", icaoUpper, d)
	}

	if dEff < 0 || dEff >= caMax3LetterVal {
		return "", fmt.Errorf("internal error: dEff %d out of expected range [0, %d) for Canadian tail letters", dEff, caMax3LetterVal)
	}

	l1Idx := dEff % caAlphabetLen
	dEff /= caAlphabetLen
	l2Idx := dEff % caAlphabetLen
	dEff /= caAlphabetLen
	l3Idx := dEff % caAlphabetLen

	tailLetters := string(caAlphabet[l3Idx]) + string(caAlphabet[l2Idx]) + string(caAlphabet[l1Idx])
	return prefix + tailLetters, nil
}

// IcaoToTailNumber converts an ICAO hex address to a tail number.
func IcaoToTailNumber(icao string) (string, error) {
	if len(icao) != icaoSize {
		return "", fmt.Errorf("ICAO hex address must be %d characters long, got %d for '%s'", icaoSize, len(icao), icao)
	}
	icaoUpper := strings.ToUpper(icao)

	for i := 1; i < icaoSize; i++ {
		char := rune(icaoUpper[i])
		isHex := (char >= '0' && char <= '9') || (char >= 'A' && char <= 'F')
		if !isHex {
			return "", fmt.Errorf("ICAO hex address '%s' contains non-hex character '%c' at position %d", icao, icaoUpper[i], i+1)
		}
	}

	firstChar := icaoUpper[0]
	switch firstChar {
	case 'A':
		return USIcaoToN(icaoUpper)
	case 'C':
		return CAIcaoToN(icaoUpper)
	default:
		return "", fmt.Errorf("unsupported ICAO prefix '%c' in '%s'. Only 'A' (US) and 'C' (Canada) are supported", firstChar, icao)
	}
}
