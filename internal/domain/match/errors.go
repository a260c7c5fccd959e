package match

import "errors"

var (
	// ErrLogicCollision marks a pet found both in the cached and the freshly
	// scored partitions. It is logged and counted, never returned.
	ErrLogicCollision = errors.New("pet present in both cached and fresh partitions")
	// ErrPetNotFound is returned by ScoreFor when the ranked list has no such pet.
	ErrPetNotFound = errors.New("pet not in ranked list")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("assembler closed")
)
