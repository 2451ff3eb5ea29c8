package engine

import "errors"

// Error taxonomy surfaced to callers. All are recoverable; the webserver
// maps them onto HTTP status codes with errors.Is.
var (
	ErrIneligible      = errors.New("member not eligible")
	ErrInvalidProposal = errors.New("invalid proposal")
	ErrNotFound        = errors.New("proposal not found")
	ErrVotingClosed    = errors.New("voting closed")
	ErrAlreadyVoted    = errors.New("already voted")
	ErrInvalidVote     = errors.New("invalid vote choice")
)
