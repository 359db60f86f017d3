// SPDX-License-Identifier: MIT
// Package comm: sentinel error set.
//
// Transport failures are returned wrapped with a stack (github.com/pkg/errors)
// at the point where they are detected; callers match them with errors.Is.

package comm

import "errors"

var (
	// ErrAborted is returned by every collective blocked or started after the
	// world was aborted (a rank failed, panicked, exited early, or the
	// context was cancelled). It is fatal for the whole distributed run.
	ErrAborted = errors.New("comm: world aborted")

	// ErrCollectiveMismatch signals that ranks called different collectives
	// at the same point of the protocol, or a rank left while peers still
	// expected it in a collective.
	ErrCollectiveMismatch = errors.New("comm: collective mismatch across ranks")

	// ErrRemoteFailure is returned by Agree on ranks that did not fail
	// locally while at least one other rank did.
	ErrRemoteFailure = errors.New("comm: collective failed on a remote rank")

	// ErrBadSize is returned when a world is requested with size < 1.
	ErrBadSize = errors.New("comm: world size must be >= 1")

	// ErrPayloadCount signals that AllToAll got len(out) != Size().
	ErrPayloadCount = errors.New("comm: payload count must equal world size")

	// ErrPayloadType signals that a typed helper received a payload of an
	// unexpected dynamic type from a peer.
	ErrPayloadType = errors.New("comm: unexpected payload type")
)
