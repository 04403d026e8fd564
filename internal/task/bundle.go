package task

// BundleTask is one task slot inside a preset bundle, carrying the
// bundle's default enabled flag and option overrides.
type BundleTask struct {
	TaskID  string  `json:"taskId"`
	Enabled bool    `json:"enabled"`
	Options Options `json:"options,omitempty"`
}

// Bundle is a named, pre-configured default queue of tasks.
type Bundle struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Tasks       []BundleTask `json:"tasks"`
}

// Presets returns the built-in preset bundles.
func Presets() []Bundle {
	return []Bundle{
		{
			ID:          "quick-checkup",
			Name:        "Quick Checkup",
			Description: "Fast read-only health snapshot",
			Tasks: []BundleTask{
				{TaskID: "disk-usage", Enabled: true},
				{TaskID: "memory-info", Enabled: true},
				{TaskID: "smart-health", Enabled: true},
			},
		},
		{
			ID:          "deep-clean",
			Name:        "Deep Clean",
			Description: "Reclaim disk space",
			Tasks: []BundleTask{
				{TaskID: "disk-usage", Enabled: true},
				{TaskID: "temp-clean", Enabled: true, Options: Options{"dryRun": false}},
				{TaskID: "smart-health", Enabled: false},
			},
		},
		{
			ID:          "network-diagnosis",
			Name:        "Network Diagnosis",
			Description: "Connectivity and name resolution checks",
			Tasks: []BundleTask{
				{TaskID: "ping-test", Enabled: true},
				{TaskID: "dns-check", Enabled: true},
			},
		},
	}
}

// PresetByID returns the preset bundle with the given id.
func PresetByID(id string) (Bundle, bool) {
	for _, b := range Presets() {
		if b.ID == id {
			return b, true
		}
	}
	return Bundle{}, false
}
