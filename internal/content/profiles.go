package content

import (
	"context"
	"sync"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// ProfileResource keeps exactly one profile marked as default whenever at
// least one profile exists.
type ProfileResource struct {
	*Resource[*models.PersonalProfile]
	mu sync.Mutex
}

// Create adds a profile. The first profile always becomes the default; a
// new profile marked default takes the flag from the previous one.
func (p *ProfileResource) Create(ctx context.Context, item *models.PersonalProfile) (*models.PersonalProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	item = item.Clone()
	first := p.coll.Len() == 0
	takeDefault := item.IsDefault && !first
	item.IsDefault = first

	created, err := p.Resource.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	if !takeDefault {
		return created, nil
	}
	if err := p.makeDefault(ctx, created.ID); err != nil {
		return nil, err
	}
	return p.coll.Get(created.ID)
}

// Update replaces a profile. Clearing the flag on the default profile is
// ignored; another profile has to be made default instead.
func (p *ProfileResource) Update(ctx context.Context, id string, item *models.PersonalProfile, ifMatch string) (*models.PersonalProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.coll.Get(id)
	if err != nil {
		return nil, err
	}
	if existing.IsDefault && !item.IsDefault {
		item = item.Clone()
		item.IsDefault = true
	}
	updated, err := p.Resource.Update(ctx, id, item, ifMatch)
	if err != nil {
		return nil, err
	}
	if updated.IsDefault && !existing.IsDefault {
		if err := p.makeDefault(ctx, id); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// Delete removes a profile. Deleting the default promotes the first
// remaining profile.
func (p *ProfileResource) Delete(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.coll.Get(id)
	if err != nil {
		return err
	}
	if err := p.Resource.Delete(ctx, id); err != nil {
		return err
	}
	if !existing.IsDefault {
		return nil
	}
	rest := p.coll.All()
	if len(rest) == 0 {
		return nil
	}
	return p.makeDefault(ctx, rest[0].ID)
}

// SetDefault makes the profile with the given id the only default one.
func (p *ProfileResource) SetDefault(ctx context.Context, id string) (*models.PersonalProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.coll.Get(id); err != nil {
		return nil, err
	}
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if err := p.makeDefault(ctx, id); err != nil {
		return nil, err
	}
	return p.coll.Get(id)
}

// Default returns the default profile.
func (p *ProfileResource) Default(_ context.Context) (*models.PersonalProfile, error) {
	for _, prof := range p.coll.All() {
		if prof.IsDefault {
			return prof, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// AttachCV records an uploaded CV file on the profile.
func (p *ProfileResource) AttachCV(ctx context.Context, id, fileName, url string) (*models.PersonalProfile, error) {
	return p.Modify(ctx, id, func(prof *models.PersonalProfile) {
		prof.CVFileName = fileName
		prof.CVFileURL = url
	})
}

// makeDefault flips the flag on every profile whose state differs. Caller
// holds mu.
func (p *ProfileResource) makeDefault(ctx context.Context, id string) error {
	var changed []string
	_, err := p.coll.Batch(ctx, func(items []*models.PersonalProfile) error {
		for _, prof := range items {
			want := prof.ID == id
			if prof.IsDefault != want {
				prof.IsDefault = want
				changed = append(changed, prof.ID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, cid := range changed {
		p.changed(ActionUpdated, cid)
	}
	return nil
}

// ensureDefault marks the first profile default when none is.
func ensureDefault(profiles []*models.PersonalProfile) {
	for _, prof := range profiles {
		if prof.IsDefault {
			return
		}
	}
	if len(profiles) > 0 {
		profiles[0].IsDefault = true
	}
}
