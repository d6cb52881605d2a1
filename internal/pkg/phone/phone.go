package phone

import "strings"

// Normalize rewrites Rwandan numbers to the local 07XXXXXXXX form.
// Spaces and dashes are dropped; +250 and 250 become 0.
func Normalize(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.NewReplacer(" ", "", "-", "").Replace(p)

	switch {
	case strings.HasPrefix(p, "+250"):
		p = "0" + p[4:]
	case strings.HasPrefix(p, "250"):
		p = "0" + p[3:]
	}
	return p
}
