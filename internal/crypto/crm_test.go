package crypto

import "testing"

func TestNormalizeCRM(t *testing.T) {
	cases := map[string]string{
		"crm 12345/sp": "12345-SP",
		"123456-RJ":    "123456-RJ",
		"CRM 9876 MG":  "9876-MG",
		" 12345sp ":    "12345-SP",
	}
	for in, want := range cases {
		if got := NormalizeCRM(in); got != want {
			t.Errorf("NormalizeCRM(%q) = %q, esperava %q", in, got, want)
		}
	}
}

func TestValidCRM(t *testing.T) {
	for _, ok := range []string{"12345-SP", "1234-RJ", "1234567-MG", "123456SP"} {
		if !ValidCRM(ok) {
			t.Errorf("%q deveria ser válido", ok)
		}
	}
	for _, bad := range []string{"", "123-SP", "12345678-SP", "12345-S", "ABCDE-SP", "12345-sp"} {
		if ValidCRM(bad) {
			t.Errorf("%q não deveria ser válido", bad)
		}
	}
}
