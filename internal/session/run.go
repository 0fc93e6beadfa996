// Package session lays out result folders as {base}/{YYYY-MM-DD}/run_N so
// repeated runs of a day never overwrite each other.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-options/pkg/errors"
)

const dateLayout = "2006-01-02"

var runPattern = regexp.MustCompile(`^run_(\d+)$`)

// Run is one numbered result folder.
type Run struct {
	base   string
	date   string
	number int
	path   string
}

// NewRun creates the next run folder of the day of now under base.
func NewRun(base string, now time.Time) (*Run, error) {
	date := now.Format(dateLayout)

	runs, err := ListRuns(base, date)
	if err != nil {
		return nil, err
	}

	number := 1
	if len(runs) > 0 {
		number = runs[len(runs)-1] + 1
	}

	r := &Run{
		base:   base,
		date:   date,
		number: number,
		path:   filepath.Join(base, date, fmt.Sprintf("run_%d", number)),
	}

	if err := os.MkdirAll(r.path, 0755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create run folder %s", r.path)
	}

	return r, nil
}

// ID returns the run name, e.g. "run_3".
func (r *Run) ID() string { return fmt.Sprintf("run_%d", r.number) }

// Number returns the run number within its day.
func (r *Run) Number() int { return r.number }

// Date returns the run day as YYYY-MM-DD.
func (r *Run) Date() string { return r.date }

// Path returns the run folder.
func (r *Run) Path() string { return r.path }

// File returns the path of name inside the run folder.
func (r *Run) File(name string) string {
	return filepath.Join(r.path, name)
}

// ListRuns returns the run numbers of date under base in ascending order.
func ListRuns(base, date string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(base, date))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read %s", filepath.Join(base, date))
	}

	var runs []int

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		m := runPattern.FindStringSubmatch(entry.Name())
		if len(m) != 2 {
			continue
		}

		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		runs = append(runs, n)
	}

	sort.Ints(runs)

	return runs, nil
}

// ListDates returns the days under base that hold runs, oldest first.
func ListDates(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read %s", base)
	}

	var dates []string

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if _, err := time.Parse(dateLayout, entry.Name()); err == nil {
			dates = append(dates, entry.Name())
		}
	}

	sort.Strings(dates)

	return dates, nil
}
