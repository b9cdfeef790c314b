package models

// Date layouts
const (
	DateLayoutISO = "2006-01-02"
)

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
