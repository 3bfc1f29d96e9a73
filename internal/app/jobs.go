package app

import (
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dayyanintl/surgishop/internal/domain"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ErrJobNotFound is returned by RunJobNow for an unknown job name
var ErrJobNotFound = errors.New("job not found")

// JobInfo describes a scheduled housekeeping job
type JobInfo struct {
	Name    string    `json:"name"`
	Spec    string    `json:"spec"`
	NextRun time.Time `json:"next_run"`
	PrevRun time.Time `json:"prev_run"`
}

type job struct {
	name string
	spec string
	run  func()
}

func (a *Application) jobTable() []job {
	return []job{
		{name: "purge_verification_codes", spec: "@hourly", run: a.SchedPurgeVerificationCodes},
		{name: "prune_audit_logs", spec: "@daily", run: a.SchedPruneAuditLogs},
	}
}

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))
	a.jobIDs = make(map[string]cron.EntryID)

	for _, j := range a.jobTable() {
		id, err := a.sched.AddFunc(j.spec, j.run)
		if err != nil {
			zap.S().Errorf("init job error %s", err.Error())
			continue
		}
		a.jobIDs[j.name] = id
	}

	a.sched.Start()
}

// Jobs lists the housekeeping jobs with their schedule state
func (a *Application) Jobs() []JobInfo {
	jobs := a.jobTable()
	out := make([]JobInfo, 0, len(jobs))
	for _, j := range jobs {
		info := JobInfo{Name: j.name, Spec: j.spec}
		if id, ok := a.jobIDs[j.name]; ok && a.sched != nil {
			entry := a.sched.Entry(id)
			info.NextRun = entry.Next
			info.PrevRun = entry.Prev
		}
		out = append(out, info)
	}
	return out
}

// RunJobNow runs a job synchronously outside its schedule
func (a *Application) RunJobNow(name string) error {
	for _, j := range a.jobTable() {
		if j.name == name {
			zap.L().Info("running job on demand", zap.String("namespace", "cron"), zap.String("job", name))
			j.run()
			return nil
		}
	}
	return errors.Wrap(ErrJobNotFound, name)
}

// SchedPurgeVerificationCodes removes used codes and codes expired for more than a day
func (a *Application) SchedPurgeVerificationCodes() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	res := a.gormDB.
		Where("is_used = ? OR expires_at < ?", true, time.Now().Add(-24*time.Hour)).
		Delete(&domain.EmailVerification{})
	if res.Error != nil {
		zap.L().Error("purge verification codes", zap.Error(res.Error))
		return
	}
	if res.RowsAffected > 0 {
		zap.L().Info("purged verification codes", zap.Int64("rows", res.RowsAffected))
	}
}

// SchedPruneAuditLogs applies the audit log retention period
func (a *Application) SchedPruneAuditLogs() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	idays := a.appConfig.Shop.AuditRetentionDays
	if idays <= 0 {
		idays = 365
	}
	res := a.gormDB.
		Where("timestamp < ?", time.Now().Add(-time.Hour*24*time.Duration(idays))).
		Delete(&domain.AuditLog{})
	if res.Error != nil {
		zap.L().Error("prune audit logs", zap.Error(res.Error))
		return
	}
	if res.RowsAffected > 0 {
		zap.L().Info("pruned audit logs", zap.Int64("rows", res.RowsAffected))
	}
}
