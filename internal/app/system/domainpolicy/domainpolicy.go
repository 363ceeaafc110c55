// Package domainpolicy enforces the organizational email-domain
// restriction. The filter is fail-closed: it admits only principals
// whose email carries the institutional domain suffix, with a single
// override for the configured super-admin address.
package domainpolicy

import "strings"

// Policy holds the organizational domain rule.
type Policy struct {
	// OrgDomain is the bare domain, without the "@" (e.g. "vishnu.edu.in").
	OrgDomain string
	// SuperAdminEmail is the one address admitted regardless of domain.
	SuperAdminEmail string
}

// Allows reports whether the given email passes the domain filter.
// The suffix match is case-sensitive on the literal domain string;
// the super-admin comparison is exact.
func (p Policy) Allows(email string) bool {
	if email == "" {
		return false
	}
	if p.SuperAdminEmail != "" && email == p.SuperAdminEmail {
		return true
	}
	if p.OrgDomain == "" {
		return false
	}
	return strings.HasSuffix(email, "@"+p.OrgDomain)
}

// IsSuperAdmin reports whether the email is exactly the configured
// super-admin address.
func (p Policy) IsSuperAdmin(email string) bool {
	return p.SuperAdminEmail != "" && email == p.SuperAdminEmail
}
