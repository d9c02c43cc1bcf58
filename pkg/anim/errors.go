package anim

import "errors"

// Errors surfaced by the animation model. All are returned to the caller;
// nothing is retried internally.
var (
	// ErrInconsistentAsset covers semantic defects in a parsed scene: the
	// same bone name with two different offset matrices, weights that do
	// not sum to one on a skinned vertex, or a bone naming a node that is
	// not in the tree.
	ErrInconsistentAsset = errors.New("inconsistent asset")

	ErrNoSuchClip = errors.New("no such animation clip")
	ErrNoSuchBone = errors.New("no such bone")
	ErrNoSuchMesh = errors.New("no such mesh")

	// ErrEmptyChannel reports a clip channel with an empty scale, rotation,
	// or translation key sequence.
	ErrEmptyChannel = errors.New("animation channel has an empty key sequence")

	// ErrNoGraphics is returned by the draw entry points of a model that
	// was built without a graphics backend.
	ErrNoGraphics = errors.New("model has no graphics backend")
)
