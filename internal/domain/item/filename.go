package item

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// BrandEtc is returned for filenames without a known brand code.
const BrandEtc = "기타(Etc)"

var brandCodes = map[string]string{
	"TM": "TIME",
	"MN": "MINE",
	"SY": "SYSTEM",
	"SJ": "SJSJ",
	"TH": "TIME HOMME",
	"OR": "오에라",
	"AD": "앤드뮐미스터",
	"AM": "아스페시남성",
	"AW": "아스페시여성",
	"AN": "아뇨나",
	"OB": "Obzee",
	"LC": "랑방 컬렉션",
	"CM": "더캐시미어",
}

var seasonRe = regexp.MustCompile(`(?i)(?:^|[^0-9a-z])(\d{2}(?:SS|FW|AW|SU|SP|FA|WI))(?:[^0-9a-z]|$)`)

// NormalizeFilename strips any client path and converts the name to NFC.
// macOS uploads Korean filenames in decomposed form.
func NormalizeFilename(filename string) string {
	name := strings.ReplaceAll(filename, `\`, "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		name = ""
	}
	return norm.NFC.String(strings.TrimSpace(name))
}

// Brand maps the two-letter prefix of a filename to a brand name.
// For example "TM_24SS_Coat.jpg" is TIME.
func Brand(filename string) string {
	if utf8.RuneCountInString(filename) < 2 {
		return BrandEtc
	}
	r := []rune(filename)
	code := strings.ToUpper(string(r[:2]))
	if b, ok := brandCodes[code]; ok {
		return b
	}
	return BrandEtc
}

// BrandCodes returns a copy of the code table.
func BrandCodes() map[string]string {
	out := make(map[string]string, len(brandCodes))
	for k, v := range brandCodes {
		out[k] = v
	}
	return out
}

// Season extracts a season token such as "24SS" from a filename, upper-cased, or "".
func Season(filename string) string {
	m := seasonRe.FindStringSubmatch(filename)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
