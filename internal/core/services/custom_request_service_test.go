package services

import (
	"context"
	"strings"
	"testing"

	"makerhub-api/internal/adapters/events"
	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCustomRequestRepo struct {
	requests map[uint]*models.CustomRequest
	control  models.CustomRequestControl
}

func newFakeCustomRequestRepo(control models.CustomRequestControl) *fakeCustomRequestRepo {
	return &fakeCustomRequestRepo{requests: map[uint]*models.CustomRequest{}, control: control}
}

func (r *fakeCustomRequestRepo) Create(_ context.Context, req *models.CustomRequest) error {
	req.ID = uint(len(r.requests) + 1)
	r.requests[req.ID] = req
	return nil
}

func (r *fakeCustomRequestRepo) GetByID(_ context.Context, id uint) (*models.CustomRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return req, nil
}

func (r *fakeCustomRequestRepo) List(_ context.Context, filter repositories.CustomRequestFilter, _, _ int) ([]*models.CustomRequest, int64, error) {
	var out []*models.CustomRequest
	for _, req := range r.requests {
		if filter.UserID != nil && (req.UserID == nil || *req.UserID != *filter.UserID) {
			continue
		}
		out = append(out, req)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCustomRequestRepo) UpdateStatus(_ context.Context, id uint, status domain.CustomRequestStatus) error {
	r.requests[id].Status = status
	return nil
}

func (r *fakeCustomRequestRepo) CountPending(context.Context) (int64, error) {
	var n int64
	for _, req := range r.requests {
		if req.Status == domain.CustomRequestPending {
			n++
		}
	}
	return n, nil
}

func (r *fakeCustomRequestRepo) GetControl(context.Context) (*models.CustomRequestControl, error) {
	c := r.control
	return &c, nil
}

func (r *fakeCustomRequestRepo) SaveControl(_ context.Context, c *models.CustomRequestControl) error {
	r.control = *c
	return nil
}

func customRequestInput() *CreateCustomRequestInput {
	return &CreateCustomRequestInput{
		ClientName:  "Ana",
		ClientEmail: "Ana@Example.com ",
		ClientPhone: "+250788123456",
		Title:       "Drone frame",
		Description: "Carbon-look frame for a 250mm quad",
	}
}

func newCustomRequestFixture(control models.CustomRequestControl) (*CustomRequestService, *fakeCustomRequestRepo, *fakeStorage, *fakePublisher) {
	repo := newFakeCustomRequestRepo(control)
	store := &fakeStorage{}
	pub := &fakePublisher{}
	svc := NewCustomRequestService(repo, newFakeCategoryRepo(), store, pub)
	return svc, repo, store, pub
}

func TestCustomRequestCreate(t *testing.T) {
	svc, _, store, pub := newCustomRequestFixture(models.CustomRequestControl{AllowCustomRequests: true})

	req, err := svc.Create(context.Background(), uintPtr(7), customRequestInput(), &ReferenceFile{
		Reader: strings.NewReader("solid model"),
		Size:   11,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CustomRequestPending, req.Status)
	assert.Equal(t, "ana@example.com", req.ClientEmail)
	assert.Equal(t, "0788123456", req.ClientPhone)
	assert.Contains(t, req.ReferenceFileURL, "custom-request-")
	assert.Len(t, store.uploads, 1)
	assert.Equal(t, []string{events.CustomRequestFiled}, pub.subjects)
}

func TestCustomRequestCreate_IntakeClosed(t *testing.T) {
	svc, _, _, _ := newCustomRequestFixture(models.CustomRequestControl{AllowCustomRequests: false, DisableReason: "Back in June"})

	_, err := svc.Create(context.Background(), nil, customRequestInput(), nil)
	require.ErrorIs(t, err, ErrCustomRequestsClosed)
	assert.Equal(t, "Back in June", err.Error())

	avail, err := svc.Availability(context.Background())
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.Equal(t, "Back in June", avail.Message)
}

func TestCustomRequestCreate_PendingCap(t *testing.T) {
	svc, _, _, _ := newCustomRequestFixture(models.CustomRequestControl{AllowCustomRequests: true, MaxPendingRequests: 1})
	ctx := context.Background()

	first, err := svc.Create(ctx, nil, customRequestInput(), nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, nil, customRequestInput(), nil)
	require.ErrorIs(t, err, ErrCustomRequestsClosed)
	assert.Equal(t, models.MsgCustomRequestsFull, err.Error())

	_, err = svc.UpdateStatus(ctx, first.ID, "in_progress")
	require.NoError(t, err)

	_, err = svc.Create(ctx, nil, customRequestInput(), nil)
	assert.NoError(t, err, "only pending requests count towards the cap")
}

func TestCustomRequestCreate_UnknownCategory(t *testing.T) {
	svc, _, _, _ := newCustomRequestFixture(models.CustomRequestControl{AllowCustomRequests: true})
	in := customRequestInput()
	in.ServiceCategoryID = uintPtr(42)

	_, err := svc.Create(context.Background(), nil, in, nil)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCustomRequestGet_Visibility(t *testing.T) {
	svc, _, _, _ := newCustomRequestFixture(models.CustomRequestControl{AllowCustomRequests: true})
	ctx := context.Background()

	req, err := svc.Create(ctx, uintPtr(7), customRequestInput(), nil)
	require.NoError(t, err)

	_, err = svc.Get(ctx, req.ID, 7, domain.RoleCustomer)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, req.ID, 8, domain.RoleCustomer)
	assert.ErrorIs(t, err, ErrCustomRequestNotFound)

	_, err = svc.Get(ctx, req.ID, 1, domain.RoleStaff)
	assert.NoError(t, err)
}

func TestCustomRequestUpdateControl(t *testing.T) {
	svc, repo, _, _ := newCustomRequestFixture(models.CustomRequestControl{AllowCustomRequests: true})
	closed := false
	reason := "  Holiday break "

	control, err := svc.UpdateControl(context.Background(), &UpdateControlInput{AllowCustomRequests: &closed, DisableReason: &reason})
	require.NoError(t, err)
	assert.False(t, control.AllowCustomRequests)
	assert.Equal(t, "Holiday break", repo.control.DisableReason)

	_, err = svc.UpdateStatus(context.Background(), 1, "archived")
	assert.ErrorIs(t, err, ErrInvalidRequestStatus)
}
