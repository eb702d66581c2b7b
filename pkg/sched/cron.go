package sched

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/coopsched/pkg/common/errors"
)

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// CronJob is a repeating process driven by a cron schedule. Each occurrence
// runs as a delayed process; the next occurrence is computed after the
// previous one completes.
type CronJob struct {
	s       *Scheduler
	exec    Executor
	args    []any
	sched   cron.Schedule
	current *Process
	stopped bool
}

// ScheduleCron runs exec on the cron schedule given by expr (six fields,
// seconds first). The executor runs through the delayed queue, so each
// occurrence starts at the first heartbeat at or after its cron time.
func (s *Scheduler) ScheduleCron(expr string, exec Executor, args ...any) (*CronJob, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	s.acquire()
	defer s.release()
	if err := s.checkExec(exec, "cron"); err != nil {
		return nil, err
	}

	job := &CronJob{s: s, exec: exec, args: args, sched: schedule}
	job.scheduleNext()
	return job, nil
}

// scheduleNext arms the next occurrence; run permit held.
func (j *CronJob) scheduleNext() {
	s := j.s
	now := s.clock.Now()
	next := j.sched.Next(now)
	if next.IsZero() {
		j.current = nil
		return
	}

	wrapped := func(co *Context, a ...any) []any {
		res := j.exec(co, a...)
		if !j.stopped {
			j.scheduleNext()
		}
		return res
	}
	p := newProcess(s, wrapped)
	p.setArgs(j.args)
	s.noteScheduled("proc", "delay")
	s.enqueueDelayed(entry{p: p}, next)
	j.current = p
}

// Stop ends the cycle and cancels the pending occurrence. Stopping twice is
// a reported no-op.
func (j *CronJob) Stop() error {
	s := j.s
	s.acquire()
	defer s.release()

	if j.stopped {
		s.log.Warnw("cron stop ignored", "reason", "already stopped")
		return errors.ErrCronStopped
	}
	j.stopped = true
	if j.current != nil && !j.current.Status().Terminal() {
		s.doCancel(j.current)
	}
	j.current = nil
	return nil
}
