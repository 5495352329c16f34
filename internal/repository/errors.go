package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate indicates a unique constraint rejected the write.
	ErrDuplicate = errors.New("repository: duplicate")
	// ErrStateChanged indicates a conditional transition found the record outside its expected state.
	ErrStateChanged = errors.New("repository: state changed")
	// ErrAlreadyMember indicates the user already holds an active membership in the team.
	ErrAlreadyMember = errors.New("repository: already an active member")
	// ErrTeamFull indicates activating a membership would exceed the team's capacity.
	ErrTeamFull = errors.New("repository: team is full")
	// ErrExpired indicates the invitation deadline has passed.
	ErrExpired = errors.New("repository: expired")
	// ErrInactive indicates the referenced team is no longer active.
	ErrInactive = errors.New("repository: inactive")
)
