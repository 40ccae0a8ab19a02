package seed

import (
	"fmt"
	"strings"

	"github.com/starford/folio/internal/models"
)

// RecordError reports one invalid record of a data set.
type RecordError struct {
	Kind  string
	Index int
	Err   error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Kind, e.Index, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

type checkable interface {
	Normalize()
	Validate() error
}

// Check normalizes copies of every record and validates them against their
// form schema. It also enforces that at most one profile is the default and
// that ids are unique per kind. The data set itself is not modified.
func Check(ds *Dataset) []RecordError {
	var errs []RecordError
	errs = append(errs, checkKind(models.KindProfiles, ds.Profiles)...)
	errs = append(errs, checkKind(models.KindAbout, ds.About)...)
	errs = append(errs, checkKind(models.KindEducation, ds.Education)...)
	errs = append(errs, checkKind(models.KindExperience, ds.Experience)...)
	errs = append(errs, checkKind(models.KindSkills, ds.Skills)...)
	errs = append(errs, checkKind(models.KindProjects, ds.Projects)...)
	errs = append(errs, checkKind(models.KindContacts, ds.Contacts)...)
	errs = append(errs, checkKind(models.KindSocials, ds.Socials)...)

	defaults := 0
	for i, p := range ds.Profiles {
		if p.IsDefault {
			defaults++
			if defaults > 1 {
				errs = append(errs, RecordError{Kind: models.KindProfiles, Index: i, Err: fmt.Errorf("more than one default profile")})
			}
		}
	}
	return errs
}

func checkKind[T interface {
	checkable
	Key() string
	Clone() T
}](kind string, items []T) []RecordError {
	var errs []RecordError
	ids := make(map[string]int, len(items))
	for i, item := range items {
		c := item.Clone()
		c.Normalize()
		if err := c.Validate(); err != nil {
			errs = append(errs, RecordError{Kind: kind, Index: i, Err: err})
		}
		if id := strings.TrimSpace(item.Key()); id != "" {
			if first, dup := ids[id]; dup {
				errs = append(errs, RecordError{Kind: kind, Index: i, Err: fmt.Errorf("duplicate id %q (first at %d)", id, first)})
				continue
			}
			ids[id] = i
		}
	}
	return errs
}
