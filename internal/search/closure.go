package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/dbsearch/internal/chem"
	"github.com/roach88/dbsearch/internal/dbfile"
	"github.com/roach88/dbsearch/internal/ir"
)

// run is the state of one Search call.
type run struct {
	e     *Engine
	opts  Options
	em    *emitter
	log   *slog.Logger
	rs    *ResultSet
	sel   *Selection
	cands CandidateLists
	redox bool
	pass  int

	excludedSolids []string
	warnings       []Warning
}

// Search runs a closure search.
//
// The search checks the selection for redox pairs, resolves the redox
// candidates when "e-" is selected, then scans every database once per
// pass. After each pass, accepted redox products that are candidates
// become new components and trigger another pass. Once no component is
// discovered, records are rewritten in terms of the user's components.
//
// Every failure is an *Error and returns a nil Result.
func (e *Engine) Search(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled("search cancelled", err)
	}

	runID := e.runIDs.Generate()
	logger := e.logger.With("run_id", runID)
	r := &run{
		e:     e,
		opts:  opts,
		em:    &emitter{clock: NewClock(), sink: e.sink, logger: logger},
		log:   logger,
		rs:    NewResultSet(),
		sel:   NewSelection(opts.Components),
		redox: containsName(opts.Components, "e-"),
	}

	r.log.Info("search starting",
		"components", strings.Join(r.sel.Original(), ", "),
		"databases", len(opts.Databases),
		"redox", r.redox,
		"solids", opts.Solids.String(),
	)

	ok, warnings := CheckConsistency(ctx, r.sel.Original(), opts.Catalogue, opts.Redox, e.confirmer)
	r.warnings = append(r.warnings, warnings...)
	if !ok {
		r.log.Info("search cancelled at selection warning")
		return nil, cancelled("selection warning declined", nil)
	}

	if r.redox {
		r.cands = ResolveCandidates(r.sel.Original(), opts.Catalogue, opts.Redox, opts.ExcludedCouples)
		r.log.Debug("redox candidates resolved",
			"candidates", strings.Join(r.cands.CandidateNames(), ", "),
			"excluded", strings.Join(r.cands.Excluded, ", "),
		)
	}

	passes := NewQuotaEnforcer(opts.passLimit())
	for {
		if err := passes.Check("closure"); err != nil {
			r.log.Error("closure does not converge", "passes", passes.Current(), "limit", passes.MaxSteps())
			return nil, &Error{Kind: ErrInternalInvariant, Message: "closure does not converge", Err: err}
		}
		r.pass = passes.Current()
		before := r.componentSet()
		if err := r.scan(ctx); err != nil {
			return nil, err
		}
		if !r.redox {
			break
		}
		r.expand()
		if !r.grewSince(before) {
			break
		}
	}

	if r.redox {
		if err := ctx.Err(); err != nil {
			return nil, cancelled("search cancelled before rewrite", err)
		}
		if err := r.rewrite(); err != nil {
			return nil, err
		}
	}

	res := &Result{
		RunID:          runID,
		Records:        r.rs.Records(),
		NX:             r.rs.NX(),
		NF:             r.rs.NF(),
		Original:       r.sel.Original(),
		Discovered:     r.sel.Discovered(),
		Passes:         r.pass,
		Candidates:     r.cands.CandidateNames(),
		Excluded:       append([]string(nil), r.cands.Excluded...),
		ExcludedSolids: r.excludedSolids,
		Warnings:       r.warnings,
	}
	r.em.emit(Event{Kind: EventSearchFinished, Message: fmt.Sprintf("%d soluble, %d solid", res.NX, res.NF)})
	r.log.Info("search finished",
		"passes", res.Passes,
		"soluble", res.NX,
		"solid", res.NF,
		"discovered", len(res.Discovered),
	)
	return res, nil
}

// scan reads every database once with the current selection.
func (r *run) scan(ctx context.Context) error {
	r.em.emit(Event{Kind: EventPassStarted, Pass: r.pass, Message: strings.Join(r.sel.All(), ", ")})
	r.log.Info("pass started", "pass", r.pass, "components", r.sel.Len())

	for _, name := range r.opts.Databases {
		if err := ctx.Err(); err != nil {
			return cancelled("search cancelled", err)
		}
		if err := r.scanFile(ctx, name); err != nil {
			return err
		}
	}

	r.em.emit(Event{Kind: EventPassFinished, Pass: r.pass})
	r.log.Info("pass finished", "pass", r.pass, "soluble", r.rs.NX(), "solid", r.rs.NF())
	return nil
}

func (r *run) scanFile(ctx context.Context, name string) error {
	src, err := r.e.opener(name)
	if err != nil {
		return &Error{Kind: ErrSourceUnavailable, Message: "cannot open database", File: name, Err: err}
	}
	defer src.Close()

	r.em.emit(Event{Kind: EventFileStarted, Pass: r.pass, File: name})
	r.log.Debug("scanning database", "file", name, "pass", r.pass, "encoding", src.Encoding().String())

	lastPct := -1
	for {
		if err := ctx.Err(); err != nil {
			return cancelled("search cancelled", err)
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var me *dbfile.MalformedRecordError
			if errors.As(err, &me) {
				return &Error{Kind: ErrMalformedRecord, Message: "cannot decode record", File: name, Ordinal: me.Ordinal, Offset: me.Offset, Err: err}
			}
			pos := src.Position()
			return &Error{Kind: ErrSourceUnavailable, Message: "cannot read database", File: name, Ordinal: pos.Ordinal, Offset: pos.Offset, Err: err}
		}

		pos := src.Position()
		frac := dbfile.Fraction(pos, src.Size())
		if pct := int(frac * 100); pct != lastPct {
			lastPct = pct
			r.em.emit(Event{Kind: EventProgress, Pass: r.pass, File: name, Ordinal: pos.Ordinal, Fraction: frac})
		}

		if err := r.accept(ctx, src, rec, pos); err != nil {
			return err
		}
	}

	r.em.emit(Event{Kind: EventFileFinished, Pass: r.pass, File: name})
	return nil
}

// accept applies the acceptance rules to one record.
func (r *run) accept(ctx context.Context, src dbfile.Source, rec ir.Record, pos dbfile.Position) error {
	if strings.TrimSpace(rec.Name) == "" {
		return nil
	}
	if rec.IsWithdrawal() {
		r.withdraw(src.Name(), pos, rec)
		return nil
	}
	if !r.isMember(rec) {
		return nil
	}
	if r.pass == 1 && src.Encoding() == dbfile.Text {
		if err := r.checkRecord(ctx, src.Name(), pos, rec); err != nil {
			return err
		}
	}

	if r.redox && hasElectron(rec) {
		if r.cands.IsExcluded(rec.Name) {
			r.em.emit(Event{Kind: EventRecordExcluded, Pass: r.pass, File: src.Name(), Ordinal: pos.Ordinal, Name: rec.Name})
			r.log.Debug("redox record excluded", "name", rec.Name, "file", src.Name())
			return nil
		}
		if r.sel.Has(rec.Name) {
			// Already a component; a newer definition with the same
			// stoichiometry replaces the one found earlier.
			if r.sel.Refresh(rec) {
				r.log.Debug("component definition refreshed", "name", rec.Name, "file", src.Name())
			}
			return nil
		}
	}

	ev := Event{Pass: r.pass, File: src.Name(), Ordinal: pos.Ordinal, Name: rec.Name}
	if r.rs.Replace(rec) {
		ev.Kind = EventRecordReplaced
		r.em.emit(ev)
		r.log.Debug("record replaced", "name", rec.Name, "file", src.Name(), "ordinal", pos.Ordinal)
		return nil
	}
	if r.solidExcluded(rec.Name) {
		if !containsName(r.excludedSolids, rec.Name) {
			r.excludedSolids = append(r.excludedSolids, rec.Name)
		}
		ev.Kind = EventSolidExcluded
		ev.Message = r.opts.Solids.annotation()
		r.em.emit(ev)
		r.log.Debug("solid excluded", "name", rec.Name, "mode", r.opts.Solids.String())
		return nil
	}
	r.rs.Insert(rec)
	ev.Kind = EventRecordAccepted
	r.em.emit(ev)
	r.log.Debug("record accepted", "name", rec.Name, "file", src.Name(), "ordinal", pos.Ordinal)
	return nil
}

// isMember reports whether every component of rec with a non-negligible
// coefficient is selected. Water is always available. A proton count not
// carried by a slot requires H+ to be selected.
func (r *run) isMember(rec ir.Record) bool {
	protonPresent := false
	for _, s := range rec.Slots {
		if s.IsEmpty() || chem.IsWater(s.Name) {
			continue
		}
		if !r.sel.Has(s.Name) && !negligible(s.Coef) {
			return false
		}
		if chem.IsProton(s.Name) {
			protonPresent = true
		}
	}
	if !protonPresent && !negligible(rec.Proton) && !r.sel.Has("H+") {
		return false
	}
	return true
}

func (r *run) solidExcluded(name string) bool {
	switch r.opts.Solids {
	case ExcludeCrSolids:
		return chem.IsCrSolid(name)
	case ExcludeCSolids:
		return chem.IsCSolid(name)
	case ExcludeCrAndCSolids:
		return chem.IsCrOrCSolid(name)
	}
	return false
}

// withdraw removes the record named by a withdrawal record. Withdrawing a
// discovered component also retracts it and every record built on it.
func (r *run) withdraw(file string, pos dbfile.Position, rec ir.Record) {
	target := rec.WithdrawalTarget()
	if r.rs.Remove(target) {
		r.em.emit(Event{Kind: EventRecordWithdrawn, Pass: r.pass, File: file, Ordinal: pos.Ordinal, Name: target})
		r.log.Debug("record withdrawn", "name", target, "file", file, "ordinal", pos.Ordinal)
	}
	if !r.redox || !r.sel.IsDiscovered(target) {
		return
	}
	r.sel.Retract(target)
	r.em.emit(Event{Kind: EventComponentRetracted, Pass: r.pass, File: file, Ordinal: pos.Ordinal, Name: target})
	r.log.Info("component retracted", "name", target, "file", file)
	for _, name := range r.rs.RemoveReferencing(target) {
		r.em.emit(Event{
			Kind:    EventRecordWithdrawn,
			Pass:    r.pass,
			File:    file,
			Ordinal: pos.Ordinal,
			Name:    name,
			Message: "references " + target,
		})
	}
}

// checkRecord runs the text database checks and asks the confirmer when
// a record has problems.
func (r *run) checkRecord(ctx context.Context, file string, pos dbfile.Position, rec ir.Record) error {
	problems := checkRecord(rec, r.opts.Catalogue)
	if len(problems) == 0 {
		return nil
	}
	w := Warning{
		Kind:    WarnRecordCheck,
		Message: fmt.Sprintf("Error in file %q\n%s", file, strings.Join(problems, "\n")),
		Names:   []string{rec.Name},
		File:    file,
		Ordinal: pos.Ordinal,
	}
	r.log.Warn("record check failed", "name", rec.Name, "file", file, "ordinal", pos.Ordinal, "problems", len(problems))
	w.Proceed = r.e.confirmer.Confirm(ctx, w.Message)
	r.warnings = append(r.warnings, w)
	if !w.Proceed {
		return &Error{
			Kind:    ErrCancelled,
			Message: "record check declined",
			File:    file,
			Ordinal: pos.Ordinal,
			Offset:  pos.Offset,
			Names:   []string{rec.Name},
		}
	}
	return nil
}

// componentSet returns the normalised names of the current selection.
func (r *run) componentSet() map[string]bool {
	set := make(map[string]bool, r.sel.Len())
	for _, name := range r.sel.All() {
		set[chem.Normalize(name)] = true
	}
	return set
}

// grewSince reports whether the selection holds a component missing from
// before. A component withdrawn and rediscovered within one pass is not
// growth.
func (r *run) grewSince(before map[string]bool) bool {
	for _, name := range r.sel.All() {
		if !before[chem.Normalize(name)] {
			return true
		}
	}
	return false
}

// expand adds the redox products of the last pass to the selection.
func (r *run) expand() {
	for _, rec := range r.rs.Records() {
		if !hasElectron(rec) {
			continue
		}
		cand, ok := r.cands.Candidate(rec.Name)
		if !ok || r.cands.IsExcluded(rec.Name) || r.sel.Has(rec.Name) {
			continue
		}
		if !chem.IsRedox(cand.Element, cand.Name) {
			continue
		}
		r.sel.Discover(rec)
		r.em.emit(Event{Kind: EventComponentDiscovered, Pass: r.pass, Name: rec.Name})
		r.log.Info("component discovered", "name", rec.Name, "element", cand.Element, "pass", r.pass)
	}
}

// rewrite substitutes discovered components in every record. It commits
// only when every record was rewritten.
func (r *run) rewrite() error {
	discovered := r.sel.Discovered()
	r.em.emit(Event{Kind: EventRewriteStarted, Message: fmt.Sprintf("%d discovered", len(discovered))})
	if len(discovered) == 0 {
		return nil
	}

	recs := r.rs.Records()
	out := make([]ir.Record, len(recs))
	for i, rec := range recs {
		rw, n, err := rewriteRecord(rec.Clone(), discovered, r.e.maxSubstitutions)
		if err != nil {
			r.log.Error("rewrite failed", "name", rec.Name, "error", err)
			return err
		}
		out[i] = rw
		if n > 0 {
			r.em.emit(Event{Kind: EventRecordRewritten, Name: rec.Name, Message: fmt.Sprintf("%d substitutions", n)})
			r.log.Debug("record rewritten", "name", rec.Name, "substitutions", n)
		}
	}
	r.rs.commit(out)
	return nil
}

func hasElectron(rec ir.Record) bool {
	for _, s := range rec.Slots {
		if !s.IsEmpty() && chem.IsElectron(s.Name) {
			return true
		}
	}
	return false
}
