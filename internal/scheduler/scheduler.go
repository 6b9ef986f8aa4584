// Package scheduler runs the analysis pipeline on a daily schedule.
package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var timeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Scheduler wraps a cron runner that fires one daily job.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

// New creates a scheduler in the given IANA timezone. An empty timezone
// uses the local zone.
func New(timezone string) (*Scheduler, error) {
	loc := time.Local
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
		}
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		location: loc,
	}, nil
}

// Schedule registers fn to run daily at timeStr (HH:MM, 24-hour).
// Any previously scheduled job is replaced.
func (s *Scheduler) Schedule(timeStr string, fn func()) error {
	hour, minute, err := parseTime(timeStr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	id, err := s.cron.AddFunc(buildCronSpec(hour, minute), fn)
	if err != nil {
		return fmt.Errorf("scheduling daily job: %w", err)
	}
	s.entryID = id
	return nil
}

// Start begins running scheduled jobs. Safe to call more than once.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.started = false
}

// NextRun returns the next scheduled run time, or the zero time if
// nothing is scheduled.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func parseTime(timeStr string) (hour, minute int, err error) {
	m := timeRegex.FindStringSubmatch(timeStr)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM (24-hour)", timeStr)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

func buildCronSpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}
