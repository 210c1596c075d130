package tracker

import (
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// UserTotal is the weekly total of a user with tracked time.
type UserTotal struct {
	Username     string `json:"username"`
	TotalMinutes int    `json:"total_minutes"`
}

// Users returns every user with a persisted weekly total in natural order,
// so that "annotator2" sorts before "annotator10".
func (t *Tracker) Users() ([]UserTotal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys, err := t.kv.Keys(totalTimePrefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))

	for _, k := range keys {
		name := strings.TrimPrefix(k, totalTimePrefix)
		if name == "" {
			continue
		}

		names = append(names, name)
	}

	sort.Sort(natural.StringSlice(names))

	users := make([]UserTotal, len(names))

	for i, name := range names {
		total, _ := t.getInt(totalTimeKey(name))

		users[i] = UserTotal{
			Username:     name,
			TotalMinutes: total,
		}
	}

	return users, nil
}
