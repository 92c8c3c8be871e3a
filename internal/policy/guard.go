// Package policy holds the write-time rules for recipes and relations.
//
// Everything here is pure: callers look up whatever state a rule needs
// (does the relation exist, which ingredients are in the catalog) and pass it
// in. The checks are a fast path for user-facing rejections; the UNIQUE and
// CHECK constraints in storage remain the final guard against races.
package policy

import (
	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
)

// CheckFollow rejects following yourself, then following someone twice.
// The self-reference check wins regardless of exists.
func CheckFollow(followerID, followedID string, exists bool) error {
	if followerID == followedID {
		return apperror.SelfReference(model.Follow.Label())
	}
	if exists {
		return apperror.DuplicateRelation(model.Follow.Label())
	}
	return nil
}

// CheckFavourite rejects starring a recipe that is already starred.
func CheckFavourite(exists bool) error {
	if exists {
		return apperror.DuplicateRelation(model.Favourite.Label())
	}
	return nil
}

// CheckPurchase rejects adding a recipe that is already in the cart.
func CheckPurchase(exists bool) error {
	if exists {
		return apperror.DuplicateRelation(model.Purchase.Label())
	}
	return nil
}

// CheckCreate applies the rule for rel's kind.
func CheckCreate(rel model.Relation, exists bool) error {
	switch rel.Kind {
	case model.Follow:
		return CheckFollow(rel.SubjectID, rel.ObjectID, exists)
	case model.Favourite:
		return CheckFavourite(exists)
	case model.Purchase:
		return CheckPurchase(exists)
	default:
		return apperror.ValidationFailed("kind", "unknown relation kind "+string(rel.Kind))
	}
}

// CheckDelete rejects removing a relation that does not exist, so that
// "nothing to delete" is never reported as success.
func CheckDelete(kind model.RelationKind, exists bool) error {
	if !exists {
		return apperror.RelationNotFound(kind.Label())
	}
	return nil
}
