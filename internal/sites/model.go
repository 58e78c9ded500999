// Package sites holds the forecourt site register: one row per site plus
// the two sentinel rows (codes 0 and 1) the ingest feed uses for
// head-office postings.
package sites

import "errors"

// ErrSiteNotFound reports a site code absent from the register.
var ErrSiteNotFound = errors.New("sites: not found")

// Site is one forecourt.
type Site struct {
	Code     int    `db:"site_code" json:"code"`
	Name     string `db:"name" json:"name"`
	Bunkered bool   `db:"is_bunkered" json:"bunkered"`
	Active   bool   `db:"is_active" json:"active"`
}

// Sentinel reports whether the code is one of the head-office rows that
// cross-site aggregates must skip.
func Sentinel(code int) bool {
	return code == 0 || code == 1
}
