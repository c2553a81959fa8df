package workload

import "strings"

// Platform labels assigned to workloads.
const (
	PlatformBSP          = "bsp"
	PlatformDataPlatform = "dataplatform"
	PlatformNA           = "NA"
)

// NotFound is the sentinel workload for accounts whose CMDB name is just the
// account ID, meaning nobody registered a real name for them.
const NotFound = "Not found"

// SplitWorkload derives a workload name from a CMDB account name: everything
// before the first hyphen. A hyphenless name equal to the account ID yields
// the NotFound sentinel, meaning nobody registered a real name; any other
// hyphenless name is returned unchanged.
func SplitWorkload(accountID, name string) string {
	if i := strings.Index(name, "-"); i >= 0 {
		return name[:i]
	}
	if name == accountID {
		return NotFound
	}
	return name
}

// Platform classifies a workload onto the platform that hosts it.
func (r *Rules) Platform(workload string) string {
	for _, p := range r.BSPPrefixes {
		if strings.HasPrefix(workload, p) {
			return PlatformBSP
		}
	}
	for _, p := range r.DataPlatformPrefixes {
		if strings.HasPrefix(workload, p) {
			return PlatformDataPlatform
		}
	}
	for _, k := range r.DataPlatformKeywords {
		if strings.Contains(workload, k) {
			return PlatformDataPlatform
		}
	}
	return PlatformNA
}

// IgnoresAlerts reports whether the workload is excluded from alert mail
// resolution.
func (r *Rules) IgnoresAlerts(workload string) bool {
	for _, w := range r.IgnoreAlertWorkloads {
		if w == workload {
			return true
		}
	}
	return false
}
