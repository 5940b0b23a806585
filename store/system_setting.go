package store

import "context"

// SystemSettingSchemaVersion holds the schema version the database was migrated to.
const SystemSettingSchemaVersion = "SCHEMA_VERSION"

// SystemSetting is a name/value pair of instance-wide state.
type SystemSetting struct {
	Name        string
	Value       string
	Description string
}

// FindSystemSetting is the find condition for system settings.
type FindSystemSetting struct {
	Name string
}

// UpsertSystemSetting creates or replaces a system setting.
func (s *Store) UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error) {
	return s.driver.UpsertSystemSetting(ctx, upsert)
}

// GetSystemSetting returns the named setting, or nil.
func (s *Store) GetSystemSetting(ctx context.Context, name string) (*SystemSetting, error) {
	list, err := s.driver.ListSystemSettings(ctx, &FindSystemSetting{Name: name})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
