package memory

import (
	"fmt"
	"reflect"

	"workwave-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sameKey(a, b bson.M) bool {
	return reflect.DeepEqual(a, b)
}

func pushEntry[T domain.SubResource[T]](list []T, entry T, dupKey bson.M) ([]T, error) {
	for _, existing := range list {
		if sameKey(existing.DuplicateKey(), dupKey) {
			return nil, domain.ErrConflict
		}
	}
	out := make([]T, 0, len(list)+1)
	out = append(out, list...)
	return append(out, entry), nil
}

func replaceEntry[T domain.SubResource[T]](list []T, entryID primitive.ObjectID, entry T, dupKey bson.M) ([]T, error) {
	idx := -1
	for i, existing := range list {
		if existing.EntryID() == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	for i, existing := range list {
		if i != idx && sameKey(existing.DuplicateKey(), dupKey) {
			return nil, domain.ErrConflict
		}
	}
	out := make([]T, len(list))
	copy(out, list)
	out[idx] = entry
	return out, nil
}

func pullEntry[T domain.SubResource[T]](list []T, entryID primitive.ObjectID) ([]T, error) {
	out := make([]T, 0, len(list))
	for _, existing := range list {
		if existing.EntryID() != entryID {
			out = append(out, existing)
		}
	}
	if len(out) == len(list) {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

// applyPush dispatches on the entry's concrete type. kind must name the
// collection that type lives in.
func applyPush(p *domain.EmployeeProfile, kind domain.SubResourceKind, entry interface{}, dupKey bson.M) error {
	var err error
	switch e := entry.(type) {
	case domain.Education:
		err = checkKind(kind, domain.KindEducation)
		if err == nil {
			p.Education, err = keep(p.Education)(pushEntry(p.Education, e, dupKey))
		}
	case domain.Experience:
		err = checkKind(kind, domain.KindExperience)
		if err == nil {
			p.Experience, err = keep(p.Experience)(pushEntry(p.Experience, e, dupKey))
		}
	case domain.Skill:
		err = checkKind(kind, domain.KindSkill)
		if err == nil {
			p.Skills, err = keep(p.Skills)(pushEntry(p.Skills, e, dupKey))
		}
	case domain.Certification:
		err = checkKind(kind, domain.KindCertification)
		if err == nil {
			p.Certifications, err = keep(p.Certifications)(pushEntry(p.Certifications, e, dupKey))
		}
	case domain.Language:
		err = checkKind(kind, domain.KindLanguage)
		if err == nil {
			p.Languages, err = keep(p.Languages)(pushEntry(p.Languages, e, dupKey))
		}
	case domain.JobPreference:
		err = checkKind(kind, domain.KindJobPreference)
		if err == nil {
			p.JobPreferences, err = keep(p.JobPreferences)(pushEntry(p.JobPreferences, e, dupKey))
		}
	default:
		err = fmt.Errorf("memory: unsupported entry type %T", entry)
	}
	return err
}

func applyReplace(p *domain.EmployeeProfile, kind domain.SubResourceKind, entryID primitive.ObjectID, entry interface{}, dupKey bson.M) error {
	var err error
	switch e := entry.(type) {
	case domain.Education:
		err = checkKind(kind, domain.KindEducation)
		if err == nil {
			p.Education, err = keep(p.Education)(replaceEntry(p.Education, entryID, e, dupKey))
		}
	case domain.Experience:
		err = checkKind(kind, domain.KindExperience)
		if err == nil {
			p.Experience, err = keep(p.Experience)(replaceEntry(p.Experience, entryID, e, dupKey))
		}
	case domain.Skill:
		err = checkKind(kind, domain.KindSkill)
		if err == nil {
			p.Skills, err = keep(p.Skills)(replaceEntry(p.Skills, entryID, e, dupKey))
		}
	case domain.Certification:
		err = checkKind(kind, domain.KindCertification)
		if err == nil {
			p.Certifications, err = keep(p.Certifications)(replaceEntry(p.Certifications, entryID, e, dupKey))
		}
	case domain.Language:
		err = checkKind(kind, domain.KindLanguage)
		if err == nil {
			p.Languages, err = keep(p.Languages)(replaceEntry(p.Languages, entryID, e, dupKey))
		}
	case domain.JobPreference:
		err = checkKind(kind, domain.KindJobPreference)
		if err == nil {
			p.JobPreferences, err = keep(p.JobPreferences)(replaceEntry(p.JobPreferences, entryID, e, dupKey))
		}
	default:
		err = fmt.Errorf("memory: unsupported entry type %T", entry)
	}
	return err
}

func applyPull(p *domain.EmployeeProfile, kind domain.SubResourceKind, entryID primitive.ObjectID) error {
	var err error
	switch kind.Field {
	case domain.KindEducation.Field:
		p.Education, err = keep(p.Education)(pullEntry(p.Education, entryID))
	case domain.KindExperience.Field:
		p.Experience, err = keep(p.Experience)(pullEntry(p.Experience, entryID))
	case domain.KindSkill.Field:
		p.Skills, err = keep(p.Skills)(pullEntry(p.Skills, entryID))
	case domain.KindCertification.Field:
		p.Certifications, err = keep(p.Certifications)(pullEntry(p.Certifications, entryID))
	case domain.KindLanguage.Field:
		p.Languages, err = keep(p.Languages)(pullEntry(p.Languages, entryID))
	case domain.KindJobPreference.Field:
		p.JobPreferences, err = keep(p.JobPreferences)(pullEntry(p.JobPreferences, entryID))
	default:
		err = fmt.Errorf("memory: unknown collection %q", kind.Field)
	}
	return err
}

// keep returns a function that yields the original list when the operation
// failed, so a rejected mutation leaves the profile untouched.
func keep[T any](orig []T) func([]T, error) ([]T, error) {
	return func(updated []T, err error) ([]T, error) {
		if err != nil {
			return orig, err
		}
		return updated, nil
	}
}

func checkKind(got, want domain.SubResourceKind) error {
	if got.Field != want.Field {
		return fmt.Errorf("memory: entry does not belong to %q", got.Field)
	}
	return nil
}
