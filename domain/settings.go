package domain

// Settings represents user configurable options.
type Settings struct {
	// NotificationsEnabled is the alert permission grant. Reminders are only
	// armed for users who opted in.
	NotificationsEnabled bool `json:"notificationsEnabled"`
}
