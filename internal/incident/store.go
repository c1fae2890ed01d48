package incident

import "context"

// Filter narrows a List query. A nil Status returns incidents in any status.
type Filter struct {
	Status *Status
	Offset int
	Limit  int
}

// Patch is a sparse field-level update. Only non-nil fields are applied;
// nil fields keep the stored value. This is what makes "field omitted"
// distinguishable from "field set to empty".
type Patch struct {
	Text        *string
	Description *string
	Status      *Status
	Source      *string
}

// Empty reports whether the patch touches no fields.
func (p Patch) Empty() bool {
	return p.Text == nil && p.Description == nil && p.Status == nil && p.Source == nil
}

// Store is the persistence interface for incidents. Lookups that find no
// row report (nil, false, nil); errors are reserved for store failures.
// There is no delete operation.
type Store interface {
	Create(ctx context.Context, inc *Incident) (*Incident, error)
	Get(ctx context.Context, id int64) (*Incident, bool, error)
	List(ctx context.Context, f Filter) ([]Incident, error)
	Update(ctx context.Context, id int64, p Patch) (*Incident, bool, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}
