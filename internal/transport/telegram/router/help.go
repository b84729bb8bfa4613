package router

import (
	"strings"

	"promobot/pkg/tgui"
)

// HelpText lists the commands the caller may use, in HTML. Admin-only
// commands are shown only to the admin.
func (r *Router) HelpText(title string, isAdmin bool) string {
	var pub, adm []string
	for _, c := range r.Commands() {
		if c.Hidden {
			continue
		}
		line := "• " + tgui.Code("/"+c.Name).String()
		if len(c.Aliases) > 0 {
			alts := make([]string, 0, len(c.Aliases))
			for _, a := range c.Aliases {
				alts = append(alts, "/"+a)
			}
			line += " (" + tgui.Esc(strings.Join(alts, ", ")).String() + ")"
		}
		if d := strings.TrimSpace(c.Description); d != "" {
			line += " - " + tgui.Esc(d).String()
		}
		if c.Access == AccessAdmin {
			adm = append(adm, line)
		} else {
			pub = append(pub, line)
		}
	}

	lines := []string{tgui.B(title).String(), ""}
	lines = append(lines, pub...)
	if isAdmin && len(adm) > 0 {
		lines = append(lines, "", "🔒 "+tgui.B("Admin").String())
		lines = append(lines, adm...)
	}
	return strings.Join(lines, "\n")
}
