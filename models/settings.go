package models

// Settings holds user preferences
type Settings struct {
	LastUsedSite           string `json:"lastUsedSite"`
	AutoFillPreviousValues bool   `json:"autoFillPreviousValues"`
	EmailNotifications     bool   `json:"emailNotifications"`
	DefaultCurrency        string `json:"defaultCurrency"`
	DateFormat             string `json:"dateFormat"`
	Theme                  string `json:"theme"`
}

// DefaultSettings returns the preferences used for every key not stored
func DefaultSettings() Settings {
	return Settings{
		LastUsedSite:           "",
		AutoFillPreviousValues: true,
		EmailNotifications:     true,
		DefaultCurrency:        "TWD",
		DateFormat:             "YYYY-MM-DD",
		Theme:                  "light",
	}
}

// SettingsPatch is a partial settings update; nil fields are not written
type SettingsPatch struct {
	LastUsedSite           *string `json:"lastUsedSite,omitempty"`
	AutoFillPreviousValues *bool   `json:"autoFillPreviousValues,omitempty"`
	EmailNotifications     *bool   `json:"emailNotifications,omitempty"`
	DefaultCurrency        *string `json:"defaultCurrency,omitempty"`
	DateFormat             *string `json:"dateFormat,omitempty"`
	Theme                  *string `json:"theme,omitempty"`
}
