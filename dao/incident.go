package dao

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
	"github.com/raywall/single-table-toolkit/validate"
)

// IncidentDAO persists incidents with a status/priority queue projection
// on GSI3. Status changes rewrite the projection key so queue listings
// stay consistent with the item.
type IncidentDAO struct {
	base *Base[entity.Incident, *entity.Incident]
	log  zerolog.Logger
}

func NewIncidentDAO(store dynstore.API, engine *validate.Engine, log zerolog.Logger) *IncidentDAO {
	return &IncidentDAO{
		base: NewBase[entity.Incident](store, engine, entity.TypeIncident, log),
		log:  log.With().Str("dao", "incident").Logger(),
	}
}

// Create stores a new incident in the open queue.
func (d *IncidentDAO) Create(ctx context.Context, incident *entity.Incident) (*entity.Incident, error) {
	if incident.IncidentID == "" {
		incident.IncidentID = uuid.NewString()
	}
	if incident.Status == "" {
		incident.Status = "open"
	}

	meta := incident.Meta()
	meta.PK, meta.SK = entity.IncidentKey(incident.IncidentID)
	meta.GSI3PK, meta.GSI3SK = entity.IncidentStatusGSI(incident.Status, incident.Priority, entity.NowISO())
	return d.base.Create(ctx, incident)
}

// GetByID returns an incident, or nil when absent.
func (d *IncidentDAO) GetByID(ctx context.Context, incidentID string) (*entity.Incident, error) {
	pk, sk := entity.IncidentKey(incidentID)
	return d.base.Get(ctx, pk, sk)
}

// ListByStatus pages through the incidents in one status, ordered by
// priority then age.
func (d *IncidentDAO) ListByStatus(ctx context.Context, status string, opts *QueryOptions) (*Page[*entity.Incident], error) {
	gsi3pk, _ := entity.IncidentStatusGSI(status, "", "")
	return d.base.QueryGSI(ctx, 3, gsi3pk, "", opts)
}

// Update applies a patch under optimistic locking.
func (d *IncidentDAO) Update(ctx context.Context, incidentID string, patch *Patch) (*entity.Incident, error) {
	pk, sk := entity.IncidentKey(incidentID)
	return d.base.Update(ctx, pk, sk, patch)
}

// MarkStatus moves an incident to a new status and rewrites its queue
// projection.
func (d *IncidentDAO) MarkStatus(ctx context.Context, incidentID, status string) (*entity.Incident, error) {
	current, err := d.GetByID(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		pk, sk := entity.IncidentKey(incidentID)
		return nil, &NotFoundError{PK: pk, SK: sk}
	}

	gsi3pk, gsi3sk := entity.IncidentStatusGSI(status, current.Priority, current.CreatedAt)
	return d.Update(ctx, incidentID, NewPatch().
		Set("status", status).
		Set("GSI3PK", gsi3pk).
		Set("GSI3SK", gsi3sk))
}

// Assign hands an incident to an operator and moves it to
// investigating.
func (d *IncidentDAO) Assign(ctx context.Context, incidentID, assignee string) (*entity.Incident, error) {
	if _, err := d.Update(ctx, incidentID, NewPatch().Set("assignedTo", assignee)); err != nil {
		return nil, err
	}
	return d.MarkStatus(ctx, incidentID, "investigating")
}

// Resolve records the resolution and closes the investigation.
func (d *IncidentDAO) Resolve(ctx context.Context, incidentID string, res entity.Resolution) (*entity.Incident, error) {
	if res.ResolvedAt == "" {
		res.ResolvedAt = entity.NowISO()
	}
	if _, err := d.Update(ctx, incidentID, NewPatch().Set("resolution", res)); err != nil {
		return nil, err
	}
	return d.MarkStatus(ctx, incidentID, "resolved")
}

// AttachFeedback links a feedback item to the incident and bumps its
// report counters.
func (d *IncidentDAO) AttachFeedback(ctx context.Context, incidentID, feedbackID string) (*entity.Incident, error) {
	return d.Update(ctx, incidentID, NewPatch().
		Append("metrics.feedbackIds", feedbackID).
		Increment("metrics.reportCount", 1))
}

// Delete removes an incident.
func (d *IncidentDAO) Delete(ctx context.Context, incidentID string) error {
	pk, sk := entity.IncidentKey(incidentID)
	return d.base.Delete(ctx, pk, sk)
}
