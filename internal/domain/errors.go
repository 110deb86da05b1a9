// Package domain holds the entities shared across the ingestion pipeline
// along with the common sentinel errors.
package domain

import "errors"

var (
	// ErrInvalidSubmission is returned when a submission is missing one of the
	// required metadata codes (T, G, M, S). Client-caused, retrying the same
	// payload will not help.
	ErrInvalidSubmission = errors.New("required game meta fields (T, G, M, or S) missing")

	// ErrEmptySubmission is returned when no non-bot player in the submission
	// carries the joins/matches/scoreboardvalid flags. Client-caused.
	ErrEmptySubmission = errors.New("no real players found, stats ignored")

	// ErrMalformedStat is returned when a recognised stat value cannot be
	// interpreted numerically. Client-caused.
	ErrMalformedStat = errors.New("stat value is not numeric")

	// ErrMissingPlayerNick is returned when a weapon stat row cannot determine
	// a nick because the event set carries neither `n` nor `P`.
	ErrMissingPlayerNick = errors.New("player events carry no nick or identity token")

	// ErrResolveConflict is returned when repeated create-if-absent attempts
	// kept losing the insert race. Transient, safe to retry.
	ErrResolveConflict = errors.New("could not resolve entity after repeated conflicts")

	ErrNoResult  = errors.New("no results found")
	ErrDuplicate = errors.New("entity already exists")
)
