package model

// RelationKind names one of the membership relations between a user and
// another user or a recipe.
type RelationKind string

const (
	// Follow links a follower (subject) to an author (object).
	Follow RelationKind = "follow"
	// Favourite links a user to a recipe they starred.
	Favourite RelationKind = "favourite"
	// Purchase links a user to a recipe in their shopping cart.
	Purchase RelationKind = "purchase"
)

// Label is the user-facing name of the relation.
func (k RelationKind) Label() string {
	switch k {
	case Follow:
		return "subscription"
	case Favourite:
		return "favourite"
	case Purchase:
		return "shopping cart entry"
	default:
		return string(k)
	}
}

// Relation is a single membership fact. For Follow, ObjectID is a user ID;
// for Favourite and Purchase it is a recipe ID.
type Relation struct {
	Kind      RelationKind
	SubjectID string
	ObjectID  string
}
