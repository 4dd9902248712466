package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/robfig/cron/v3"
	"github.com/shanegiles-web/gymnastics-platform/internal/recurrence"
	"github.com/shanegiles-web/gymnastics-platform/internal/repository"
	"github.com/shanegiles-web/gymnastics-platform/internal/service"
)

const (
	jobTimeout       = 5 * time.Minute
	rateLimitCleanup = "@hourly"
)

// Runner holds the periodic maintenance work of the class service.
type Runner struct {
	classRepo   repository.ClassRepository
	instances   service.InstanceService
	rateLimits  repository.RateLimitRepository
	horizonDays int
	loc         *time.Location
	now         func() time.Time
}

func NewRunner(
	classRepo repository.ClassRepository,
	instances service.InstanceService,
	rateLimits repository.RateLimitRepository,
	horizonDays int,
	loc *time.Location,
) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{
		classRepo:   classRepo,
		instances:   instances,
		rateLimits:  rateLimits,
		horizonDays: horizonDays,
		loc:         loc,
		now:         time.Now,
	}
}

// Schedule registers every job on c. Runs of the same job never overlap.
func (r *Runner) Schedule(c *cron.Cron, generationSpec, statusSpec string) error {
	if _, err := c.AddFunc(generationSpec, r.GenerateUpcoming); err != nil {
		return fmt.Errorf("schedule instance generation %q: %w", generationSpec, err)
	}
	if _, err := c.AddFunc(statusSpec, r.AdvanceStatuses); err != nil {
		return fmt.Errorf("schedule status advancement %q: %w", statusSpec, err)
	}
	if _, err := c.AddFunc(rateLimitCleanup, r.PurgeRateLimits); err != nil {
		return fmt.Errorf("schedule rate limit cleanup: %w", err)
	}
	return nil
}

func NewCron() *cron.Cron {
	return cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
}

// GenerateUpcoming keeps every scheduled class materialized from today
// through the configured horizon.
func (r *Runner) GenerateUpcoming() {
	log.Info("[Jobs] running: GenerateUpcoming")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	refs, err := r.classRepo.ListScheduled(ctx)
	if err != nil {
		log.Errorf("[Jobs] failed to list scheduled classes: %v", err)
		return
	}

	start := recurrence.DateOf(r.now().In(r.loc))
	end := start.AddDate(0, 0, r.horizonDays)

	var created int64
	var failed int
	for _, ref := range refs {
		result, err := r.instances.GenerateInstances(ctx, ref.FacilityID, ref.ID, start, end)
		if err != nil {
			if errors.Is(err, service.ErrNoSchedulesDefined) {
				continue
			}
			failed++
			log.Errorf("[Jobs] generation failed for class %s: %v", ref.ID, err)
			continue
		}
		created += result.InstancesCreated
	}

	log.Infof("[Jobs] GenerateUpcoming: %d classes, %d instances created, %d failures",
		len(refs), created, failed)
}

func (r *Runner) AdvanceStatuses() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started, completed, err := r.instances.AdvanceStatuses(ctx, r.now().UTC())
	if err != nil {
		log.Errorf("[Jobs] status advancement failed: %v", err)
		return
	}
	if started > 0 || completed > 0 {
		log.Infof("[Jobs] AdvanceStatuses: %d started, %d completed", started, completed)
	}
}

func (r *Runner) PurgeRateLimits() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := r.rateLimits.DeleteExpired(ctx, r.now().UTC())
	if err != nil {
		log.Errorf("[Jobs] rate limit cleanup failed: %v", err)
		return
	}
	log.Infof("[Jobs] PurgeRateLimits: removed %d expired counters", removed)
}
