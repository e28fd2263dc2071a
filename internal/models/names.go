package models

import (
	"fmt"
	"strings"
)

// SplitNameAndAccount decomposes a raw name cell into its account ID and the
// name text preceding it. The account ID is the last run of pure-digit tokens
// at the end of the string; any earlier digit tokens are folded back into the
// name. Returns ok=false when no trailing account token exists.
func SplitNameAndAccount(raw string) (accountID int64, name string, ok bool) {
	parts := strings.Fields(strings.TrimSpace(raw))
	if len(parts) == 0 {
		return 0, "", false
	}

	var trailing []string
	for len(parts) > 0 && isDigits(parts[len(parts)-1]) {
		trailing = append([]string{parts[len(parts)-1]}, trailing...)
		parts = parts[:len(parts)-1]
	}
	if len(trailing) == 0 {
		return 0, "", false
	}

	// Last token is the account ID; earlier numbers belong to the name.
	idToken := trailing[len(trailing)-1]
	nameTokens := append(parts, trailing[:len(trailing)-1]...)

	var id int64
	if _, err := fmt.Sscanf(idToken, "%d", &id); err != nil {
		return 0, "", false
	}
	return id, strings.TrimSpace(strings.Join(nameTokens, " ")), true
}

// SplitMultiNames splits a name string that may contain several people joined
// by "and" or "&" into individual MemberNames. The final token of the whole
// string is treated as the shared last name unless an earlier group carries
// its own; Raw on every result is the full input text.
func SplitMultiNames(raw string) []MemberName {
	parts := strings.Fields(strings.TrimSpace(raw))
	if len(parts) == 0 {
		return nil
	}

	var names []MemberName
	var current []string
	lastName := parts[len(parts)-1]

	for _, part := range parts[:len(parts)-1] {
		lower := strings.ToLower(part)
		if lower == "and" || lower == "&" {
			if len(current) > 0 {
				first := strings.TrimSpace(strings.Join(current, " "))
				if len(current) == 2 {
					first = current[0]
					lastName = current[1]
				}
				names = append(names, MemberName{First: first, Last: lastName, Raw: raw})
				current = current[:0]
			}
			continue
		}
		current = append(current, part)
	}

	if len(current) > 0 {
		names = append(names, MemberName{
			First: strings.TrimSpace(strings.Join(current, " ")),
			Last:  lastName,
			Raw:   raw,
		})
	}

	return names
}

// AccountNameString renders a record's names plus its trailing account ID the
// way the worksheets store them: "First Last 1234" for a single member,
// "First and First Last 1234" for joint accounts.
func AccountNameString(accountID int64, names []MemberName) string {
	if len(names) == 1 {
		if accountID != 0 {
			return strings.TrimSpace(fmt.Sprintf("%s %d", names[0].String(), accountID))
		}
		return names[0].String()
	}

	var b strings.Builder
	for i, n := range names {
		if i != len(names)-1 {
			b.WriteString(n.First)
			b.WriteString(" and ")
		} else {
			b.WriteString(n.String())
			b.WriteString(" ")
		}
	}
	if accountID != 0 {
		b.WriteString(fmt.Sprintf("%d", accountID))
	}
	return strings.TrimSpace(b.String())
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
