/*
Package watch polls validator and governance state and turns observed
differences into notifications. Detection is a pure comparison of two
records; the Watcher owns scheduling, fan-out and failure handling and
hands detected changes to a Notifier.
*/
package watch

import (
	"fmt"
	"strconv"

	"github.com/blackoreo/namwatch/types"
)

// Field names the aspect of a validator a change was detected in.
type Field string

const (
	FieldState       Field = "state"
	FieldCommission  Field = "commission"
	FieldVotingPower Field = "voting_power"
)

// Change is one observed difference, with both sides rendered in their
// canonical display form.
type Change struct {
	Field Field
	Old   string
	New   string
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.Field, c.Old, c.New)
}

// ChangeSet is the ordered list of differences between two observations
// of the same validator: state first, then commission, then voting power.
type ChangeSet []Change

/*
Detector compares two observations of a validator. By default it watches
the state and the commission rate; voting power moves on nearly every
epoch for an active validator, so it is only reported when opted in.
*/
type Detector struct {
	votingPower bool
}

type DetectorOption func(*Detector)

// WithVotingPowerChanges makes the detector report bonded stake changes too.
func WithVotingPowerChanges() DetectorOption {
	return func(d *Detector) { d.votingPower = true }
}

func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

/*
Diff returns the changes from prev to curr. A nil prev is the baseline
observation of an address: nothing to compare against, no changes. Two
equal records yield an empty set, so Diff(r, r) is always empty.

Commission rates are compared on their exact scaled integer values; a
difference in the last decimal place is a change.
*/
func (d *Detector) Diff(prev, curr *types.ValidatorRecord) ChangeSet {
	if prev == nil || curr == nil {
		return nil
	}

	var changes ChangeSet
	if prev.State != curr.State {
		changes = append(changes, Change{FieldState, prev.State.String(), curr.State.String()})
	}
	if prev.Commission != curr.Commission {
		changes = append(changes, Change{FieldCommission, prev.Commission.String(), curr.Commission.String()})
	}
	if d.votingPower && prev.VotingPower != curr.VotingPower {
		changes = append(changes, Change{
			FieldVotingPower,
			strconv.FormatUint(prev.VotingPower, 10),
			strconv.FormatUint(curr.VotingPower, 10),
		})
	}
	return changes
}
