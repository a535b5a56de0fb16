package laboratory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	labs map[string]*Laboratory
}

func (r *memRepo) Create(_ context.Context, lab *Laboratory) error {
	lab.ID = uuid.NewString()
	cp := *lab
	r.labs[lab.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Laboratory, error) {
	lab, ok := r.labs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *lab
	return &cp, nil
}

func (r *memRepo) List(context.Context, Filter) ([]*Laboratory, int, error) {
	var out []*Laboratory
	for _, l := range r.labs {
		out = append(out, l)
	}
	return out, len(out), nil
}

func (r *memRepo) Update(_ context.Context, lab *Laboratory) error {
	if _, ok := r.labs[lab.ID]; !ok {
		return ErrNotFound
	}
	cp := *lab
	r.labs[lab.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.labs[id]; !ok {
		return ErrNotFound
	}
	delete(r.labs, id)
	return nil
}

func TestLaboratoryLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memRepo{labs: map[string]*Laboratory{}})

	lab, err := svc.Create(ctx, CreateRequest{Name: " Chem 101 ", Capacity: 30})
	require.NoError(t, err)
	assert.Equal(t, "Chem 101", lab.Name)
	assert.Equal(t, StatusAvailable, lab.Status)

	maint := StatusMaintenance
	updated, err := svc.Update(ctx, lab.ID, UpdateRequest{Status: &maint})
	require.NoError(t, err)
	assert.Equal(t, StatusMaintenance, updated.Status)

	got, err := svc.GetByID(ctx, lab.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusMaintenance, got.Status)

	require.NoError(t, svc.Delete(ctx, lab.ID))
	_, err = svc.GetByID(ctx, lab.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLaboratoryValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memRepo{labs: map[string]*Laboratory{}})

	_, err := svc.Create(ctx, CreateRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = svc.Create(ctx, CreateRequest{Name: "Bio", Capacity: -1})
	assert.ErrorIs(t, err, ErrCapacityInvalid)
	_, err = svc.Create(ctx, CreateRequest{Name: "Bio", Status: "closed"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, _, err = svc.List(ctx, Filter{Status: "closed"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	lab, err := svc.Create(ctx, CreateRequest{Name: "Bio"})
	require.NoError(t, err)
	blank := ""
	_, err = svc.Update(ctx, lab.ID, UpdateRequest{Name: &blank})
	assert.ErrorIs(t, err, ErrNameRequired)
}
