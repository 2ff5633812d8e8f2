package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/doctor-smile-ledger/internal/domain/settings"
)

// SettingsRepository implements settings.Repository in memory
type SettingsRepository struct {
	store *Store
}

func (r *SettingsRepository) Get(_ context.Context, key settings.Key) (string, error) {
	var (
		value string
		ok    bool
	)
	r.store.read(func(d *state) { value, ok = d.settings[key] })
	if !ok {
		return "", settings.ErrSettingMissing{Key: key}
	}
	return value, nil
}

func (r *SettingsRepository) Set(_ context.Context, key settings.Key, value string) error {
	r.store.write(func(d *state) { d.settings[key] = value })
	return nil
}

func (r *SettingsRepository) InsertIfAbsent(_ context.Context, s settings.Setting) error {
	r.store.write(func(d *state) {
		if _, ok := d.settings[s.Key]; !ok {
			d.settings[s.Key] = s.Value
		}
	})
	return nil
}

func (r *SettingsRepository) List(_ context.Context) ([]settings.Setting, error) {
	var out []settings.Setting
	r.store.read(func(d *state) {
		for k, v := range d.settings {
			out = append(out, settings.Setting{Key: k, Value: v})
		}
	})
	slices.SortFunc(out, func(a, b settings.Setting) int { return strings.Compare(string(a.Key), string(b.Key)) })
	return out, nil
}
