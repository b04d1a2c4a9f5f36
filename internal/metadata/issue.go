package metadata

import "strings"

// ParseIssueTag splits the free-form contents of an <issue> tag into the issue
// number, the supplement label, and the supplement value.
//
// Observed contents: "2", "Suppl", "3 Suppl 1", "Suppl 1".
func ParseIssueTag(content string) (number, supplLabel, suppl string) {
	if content == "" {
		return "", "", ""
	}
	lower := strings.ToLower(content)
	idx := strings.Index(lower, "sup")
	if idx < 0 {
		return content, "", ""
	}

	number = strings.TrimSpace(content[:idx])

	supplLabel = content[idx:]
	if space := strings.Index(supplLabel, " "); space >= 0 {
		supplLabel = supplLabel[:space]
	}

	rest := content[idx+len(supplLabel):]
	suppl = strings.TrimSpace(rest)
	return number, supplLabel, suppl
}

// SupplementType decides whether a supplement belongs to the volume or to the
// number: a supplement accompanies the number when one is present, otherwise
// the volume.
func SupplementType(volume, number, suppl string) (supplVolume, supplNumber string) {
	if number != "" {
		return "", suppl
	}
	return suppl, ""
}

// IssueIdentification resolves the elements that identify an issue: volume,
// volume supplement, number, and number supplement. Leading zeros are
// stripped from volume and number.
func IssueIdentification(volume, number, supplement string) (vol, supplVol, num, supplNum string) {
	num, label, suppl := ParseIssueTag(number)
	if label != "" && suppl == "" {
		suppl = label
	} else {
		suppl = supplement
	}
	supplVol, supplNum = SupplementType(volume, num, suppl)

	vol = strings.TrimLeft(volume, "0")
	num = strings.TrimLeft(num, "0")
	return vol, supplVol, num, supplNum
}
