package crypto

import (
	"regexp"
	"strings"
)

var crmPattern = regexp.MustCompile(`^[0-9]{4,7}-?[A-Z]{2}$`)

// NormalizeCRM remove espaços e prefixo "CRM" e deixa a UF em maiúsculas
// (ex.: "crm 12345/sp" -> "12345-SP").
func NormalizeCRM(crm string) string {
	s := strings.ToUpper(strings.TrimSpace(crm))
	s = strings.TrimPrefix(s, "CRM")
	s = strings.NewReplacer(" ", "", ".", "", "/", "-").Replace(s)
	if len(s) > 2 && s[len(s)-3] != '-' {
		s = s[:len(s)-2] + "-" + s[len(s)-2:]
	}
	return s
}

// ValidCRM confere o formato número+UF do registro no conselho regional.
func ValidCRM(crmNormalized string) bool {
	return crmPattern.MatchString(crmNormalized)
}
