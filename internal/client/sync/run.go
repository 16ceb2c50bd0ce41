package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/syncerr"
)

// manualResolution carries resolutions chosen outside a session
type manualResolution struct {
	conflicts   []models.ConflictInfo
	resolutions []models.ConflictResolution
}

// run is the state of one session while it executes
type run struct {
	provider Provider
	svc      *Service
	session  *models.SyncSession
	logger   *slog.Logger
	cfg      models.SyncConfig
	// unconfirmed записи, взятые из очереди, но еще не принятые провайдером
	unconfirmed []models.Change
	online      bool
}

// restore puts drained but unconfirmed records back into the queue
func (r *run) restore() {
	if len(r.unconfirmed) == 0 {
		return
	}
	restored := r.svc.queue.Restore(r.unconfirmed)
	r.logger.Debug("Restored unconfirmed changes", "count", restored, "drained", len(r.unconfirmed))
	r.unconfirmed = nil
}

func (r *run) execute(ctx context.Context, push bool, manual *manualResolution) error {
	if r.online {
		if err := r.authenticate(ctx); err != nil {
			return err
		}
	}

	if manual != nil {
		if err := r.applyManual(ctx, manual); err != nil {
			return err
		}
	}

	if push {
		done, err := r.push(ctx)
		if err != nil || done {
			return err
		}
	}

	return r.pull(ctx)
}

func (r *run) authenticate(ctx context.Context) error {
	var ok bool
	err := r.svc.call(ctx, "authenticate", func(ctx context.Context) error {
		var err error
		ok, err = r.provider.Authenticate(ctx, r.cfg.APIKey)
		return err
	})
	if err != nil {
		return err
	}
	if !ok {
		return syncerr.Errorf(syncerr.KindAuthenticationFailed, "authenticate", "credential rejected by %s", r.cfg.ServerURL)
	}
	return nil
}

// applyManual sends externally chosen resolutions and drops the queued
// records they settle
func (r *run) applyManual(ctx context.Context, manual *manualResolution) error {
	err := r.svc.call(ctx, "resolve", func(ctx context.Context) error {
		return r.provider.ResolveConflicts(ctx, manual.resolutions)
	})
	if err != nil {
		return err
	}

	r.session.RecordConflicts(manual.conflicts...)
	r.session.RecordResolutions(manual.resolutions...)

	for _, c := range manual.conflicts {
		r.svc.queue.Remove(c.ChangeID)
	}

	r.logger.Info("Applied manual resolutions", "count", len(manual.resolutions))
	return nil
}

// push drains the queue and pushes it, resolving conflicts automatically
// when the strategy allows. done is true when the session was completed
// without a pull (offline or conflicts left for a manual decision).
func (r *run) push(ctx context.Context) (bool, error) {
	if err := r.session.Transition(models.StatePushing); err != nil {
		return false, err
	}

	held, err := r.heldChangeIDs(ctx)
	if err != nil {
		return false, err
	}

	// Записи с нерешенным конфликтом не отправляются повторно
	var parked []models.Change
	for _, c := range r.svc.queue.DrainAll() {
		if _, ok := held[c.ChangeID]; ok {
			parked = append(parked, c)
			continue
		}
		r.unconfirmed = append(r.unconfirmed, c)
	}
	if len(parked) > 0 {
		r.svc.queue.Restore(parked)
	}

	for round := 1; ; round++ {
		if r.online && len(r.unconfirmed) == 0 {
			return false, nil
		}

		var result models.SyncResult
		err := r.svc.call(ctx, "push", func(ctx context.Context) error {
			var err error
			result, err = r.provider.PushChanges(ctx, r.unconfirmed)
			return err
		})
		if err != nil {
			return false, err
		}

		switch result.Kind {
		case models.ResultOffline:
			r.restore()
			return true, r.session.Complete(r.svc.now(), models.OutcomeOffline)

		case models.ResultSuccess:
			for i := range r.unconfirmed {
				r.unconfirmed[i].MarkSynced()
			}
			r.session.RecordPushed(r.unconfirmed...)
			r.logger.Debug("Changes pushed", "count", len(r.unconfirmed), "round", round)
			r.unconfirmed = nil
			return false, nil

		case models.ResultConflict:
			done, err := r.resolve(ctx, result.Conflicts, round)
			if err != nil || done {
				return done, err
			}

		default:
			return false, syncerr.Errorf(syncerr.KindServerError, "push", "unknown push result %q", result.Kind)
		}
	}
}

// resolve handles the conflicts of one push round
func (r *run) resolve(ctx context.Context, conflicts []models.ConflictInfo, round int) (bool, error) {
	if len(conflicts) == 0 {
		return false, syncerr.Errorf(syncerr.KindServerError, "push", "conflict result without conflicts")
	}

	r.session.RecordConflicts(conflicts...)
	if err := r.session.Transition(models.StateResolving); err != nil {
		return false, err
	}

	r.logger.Info("Conflicts detected", "count", len(conflicts), "strategy", r.cfg.ConflictStrategy, "round", round)

	resolutions, ok := AutoResolve(r.cfg.ConflictStrategy, conflicts)
	if !ok {
		r.restore()
		return true, r.session.Complete(r.svc.now(), models.OutcomeConflict)
	}

	if round >= r.svc.maxRounds {
		return false, syncerr.Errorf(syncerr.KindConflict, "push", "conflicts remain after %d rounds", round)
	}

	err := r.svc.call(ctx, "resolve", func(ctx context.Context) error {
		return r.provider.ResolveConflicts(ctx, resolutions)
	})
	if err != nil {
		return false, err
	}
	r.session.RecordResolutions(resolutions...)

	// Записи, покрытые конфликтами, уже решены на другой стороне
	covered := make(map[models.ItemKey]struct{}, len(conflicts))
	for i := range conflicts {
		covered[conflicts[i].Key()] = struct{}{}
	}
	remaining := make([]models.Change, 0, len(r.unconfirmed))
	for _, c := range r.unconfirmed {
		if _, ok := covered[c.Key()]; !ok {
			remaining = append(remaining, c)
		}
	}
	r.unconfirmed = remaining

	if len(remaining) == 0 {
		return false, nil
	}
	return false, r.session.Transition(models.StatePushing)
}

func (r *run) pull(ctx context.Context) error {
	if err := r.session.Transition(models.StatePulling); err != nil {
		return err
	}

	var pulled []models.Change
	err := r.svc.call(ctx, "pull", func(ctx context.Context) error {
		var err error
		pulled, err = r.provider.PullChanges(ctx, r.cfg.LastSync)
		return err
	})
	if err != nil {
		return err
	}

	for i := range pulled {
		if err := pulled[i].Validate(); err != nil {
			return fmt.Errorf("pulled change %s: %w", pulled[i].Key(), err)
		}
		pulled[i].MarkSynced()
	}
	r.session.RecordPulled(pulled...)

	outcome := models.OutcomeSuccess
	if !r.online {
		outcome = models.OutcomeOffline
	}
	return r.session.Complete(r.svc.now(), outcome)
}

// heldChangeIDs returns the change ids behind unresolved conflicts
func (r *run) heldChangeIDs(ctx context.Context) (map[string]struct{}, error) {
	held := make(map[string]struct{})
	if !r.online {
		return held, nil
	}

	conflicts, err := r.svc.changes.PendingConflicts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending conflicts: %w", err)
	}
	for _, c := range conflicts {
		held[c.ChangeID] = struct{}{}
	}
	return held, nil
}
