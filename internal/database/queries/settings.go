package queries

import "context"

type SettingQuerier interface {
	GetSetting(ctx context.Context, key string) (Setting, error)
	ListSettings(ctx context.Context) ([]Setting, error)
	UpsertSetting(ctx context.Context, arg UpsertSettingParams) (Setting, error)
}

func (q *Queries) GetSetting(ctx context.Context, key string) (Setting, error) {
	var s Setting
	err := q.get(ctx, &s, `SELECT key, value, description, updated_at FROM settings WHERE key = ?`, key)
	return s, err
}

func (q *Queries) ListSettings(ctx context.Context) ([]Setting, error) {
	settings := []Setting{}
	err := q.selectAll(ctx, &settings, `SELECT key, value, description, updated_at FROM settings ORDER BY key`)
	return settings, err
}

type UpsertSettingParams struct {
	Key         string
	Value       string
	Description string
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) (Setting, error) {
	_, err := q.exec(ctx, `INSERT INTO settings (key, value, description, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, description = excluded.description, updated_at = excluded.updated_at`,
		arg.Key, arg.Value, arg.Description, q.now())
	if err != nil {
		return Setting{}, err
	}
	return q.GetSetting(ctx, arg.Key)
}
