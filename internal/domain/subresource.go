package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubResource is implemented by every entry kind kept in an employee profile
// collection. T is the implementing type itself.
type SubResource[T any] interface {
	EntryID() primitive.ObjectID
	WithID(id primitive.ObjectID) T
	// Normalize trims free text and fills defaults. Validation and duplicate
	// detection both run on the normalized value.
	Normalize() T
	// DuplicateKey is the projection no two entries in one collection may
	// share, keyed by bson field name.
	DuplicateKey() bson.M
}

// SubResourceKind names one collection on the employee profile.
type SubResourceKind struct {
	Field string
	Label string
}

var (
	KindEducation     = SubResourceKind{Field: "education", Label: "Education"}
	KindExperience    = SubResourceKind{Field: "experience", Label: "Experience"}
	KindSkill         = SubResourceKind{Field: "skills", Label: "Skill"}
	KindCertification = SubResourceKind{Field: "certifications", Label: "Certification"}
	KindLanguage      = SubResourceKind{Field: "languages", Label: "Language"}
	KindJobPreference = SubResourceKind{Field: "jobPreferences", Label: "Job preference"}
)

// SubResourceUsecase adds, edits and deletes entries of one kind on the
// caller's own profile. Every operation returns the full updated collection.
type SubResourceUsecase[T any] interface {
	Add(ctx context.Context, entry T) ([]T, error)
	Edit(ctx context.Context, entryID primitive.ObjectID, entry T) ([]T, error)
	Delete(ctx context.Context, entryID primitive.ObjectID) ([]T, error)
}
