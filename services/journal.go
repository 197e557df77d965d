package services

import (
	"fmt"
	"sort"

	"github.com/Bekzhanizb/QuitTrackerBackend/models"
)

// AppendEntry prepends entry. Input is validated by the caller.
func AppendEntry(entry models.JournalEntry) func(models.UserRecord) (models.UserRecord, error) {
	return func(rec models.UserRecord) (models.UserRecord, error) {
		for _, e := range rec.Journal {
			if e.ID == entry.ID {
				return rec, fmt.Errorf("entry %q: %w", entry.ID, ErrDuplicateEntry)
			}
		}
		journal := make([]models.JournalEntry, 0, len(rec.Journal)+1)
		journal = append(journal, entry)
		rec.Journal = append(journal, rec.Journal...)
		return rec, nil
	}
}

// UpdateEntry replaces the entry with the same id. An unknown id leaves the
// record untouched so retried requests stay safe.
func UpdateEntry(entry models.JournalEntry) func(models.UserRecord) (models.UserRecord, error) {
	return func(rec models.UserRecord) (models.UserRecord, error) {
		for i, e := range rec.Journal {
			if e.ID != entry.ID {
				continue
			}
			journal := make([]models.JournalEntry, len(rec.Journal))
			copy(journal, rec.Journal)
			journal[i] = entry
			rec.Journal = journal
			return rec, nil
		}
		return rec, nil
	}
}

// RemoveEntry drops the entry with id; unknown ids are a no-op.
func RemoveEntry(id string) func(models.UserRecord) (models.UserRecord, error) {
	return func(rec models.UserRecord) (models.UserRecord, error) {
		idx := -1
		for i, e := range rec.Journal {
			if e.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return rec, nil
		}
		journal := make([]models.JournalEntry, 0, len(rec.Journal)-1)
		journal = append(journal, rec.Journal[:idx]...)
		rec.Journal = append(journal, rec.Journal[idx+1:]...)
		return rec, nil
	}
}

// SortedJournal returns a copy ordered newest first.
func SortedJournal(journal []models.JournalEntry) []models.JournalEntry {
	out := make([]models.JournalEntry, len(journal))
	copy(out, journal)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}
