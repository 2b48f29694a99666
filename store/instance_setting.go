package store

// InstanceSetting is a named instance-wide setting row. The migrator
// records the applied schema version here.
type InstanceSetting struct {
	Name  string
	Value string
}

// FindInstanceSetting specifies the setting to look up.
type FindInstanceSetting struct {
	Name string
}
