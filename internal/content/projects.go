package content

import (
	"context"

	"github.com/starford/folio/internal/models"
)

// ProjectResource adds publishing to the project CRUD.
type ProjectResource struct {
	*Resource[*models.Project]
}

// TogglePublish flips the published flag of one project.
func (p *ProjectResource) TogglePublish(ctx context.Context, id string) (*models.Project, error) {
	return p.Modify(ctx, id, func(proj *models.Project) {
		proj.IsPublished = !proj.IsPublished
	})
}

// Published returns the published projects in display order.
func (p *ProjectResource) Published(_ context.Context) []*models.Project {
	var out []*models.Project
	for _, proj := range p.coll.All() {
		if proj.IsPublished {
			out = append(out, proj)
		}
	}
	return nonNilSlice(out)
}
