package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
)

type mockResourceRepo struct {
	resources map[string]models.Resource
	retired   []string
}

func (m *mockResourceRepo) Create(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = "res-new"
	}
	if m.resources == nil {
		m.resources = make(map[string]models.Resource)
	}
	m.resources[resource.ID] = *resource
	return nil
}

func (m *mockResourceRepo) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	if r, ok := m.resources[id]; ok {
		copied := r
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockResourceRepo) FindDetailByID(ctx context.Context, id string) (*models.ResourceDetail, error) {
	if r, ok := m.resources[id]; ok {
		return &models.ResourceDetail{Resource: r}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockResourceRepo) List(ctx context.Context, filter models.ResourceFilter) ([]models.ResourceDetail, error) {
	var list []models.ResourceDetail
	for _, r := range m.resources {
		if filter.ActivityID != "" && r.ActivityID != filter.ActivityID {
			continue
		}
		list = append(list, models.ResourceDetail{Resource: r})
	}
	return list, nil
}

func (m *mockResourceRepo) Update(ctx context.Context, resource *models.Resource) error {
	m.resources[resource.ID] = *resource
	return nil
}

func (m *mockResourceRepo) Retire(ctx context.Context, id string) error {
	m.retired = append(m.retired, id)
	return nil
}

func resourceFixture() (*ResourceService, *mockResourceRepo) {
	repo := &mockResourceRepo{resources: map[string]models.Resource{}}
	activities := &mockActivityReader{activities: map[string]models.Activity{
		"act-1": upcomingActivity("act-1", "imam-1"),
	}}
	svc := NewResourceService(repo, activities, nil, nil)
	return svc, repo
}

func TestResourceServiceCreateOrganizerOnly(t *testing.T) {
	svc, _ := resourceFixture()

	_, err := svc.Create(context.Background(), memberClaims("member-1"), CreateResourceRequest{Name: "Prayer mats", ActivityID: "act-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestResourceServiceCreate(t *testing.T) {
	svc, repo := resourceFixture()

	detail, err := svc.Create(context.Background(), imamClaims("imam-1"), CreateResourceRequest{Name: "Prayer mats", ActivityID: "act-1"})
	require.NoError(t, err)
	assert.Equal(t, "Prayer mats", detail.Name)
	assert.Equal(t, "imam-1", detail.CreatedBy)
	assert.Len(t, repo.resources, 1)
}

func TestResourceServiceCreateUnknownActivity(t *testing.T) {
	svc, _ := resourceFixture()

	_, err := svc.Create(context.Background(), imamClaims("imam-1"), CreateResourceRequest{Name: "Prayer mats", ActivityID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResourceServiceUpdateEmptyNameRejected(t *testing.T) {
	svc, repo := resourceFixture()
	repo.resources["res-1"] = models.Resource{ID: "res-1", Name: "Chairs", ActivityID: "act-1", CreatedBy: "imam-1"}

	empty := ""
	_, err := svc.Update(context.Background(), imamClaims("imam-1"), "res-1", UpdateResourceRequest{Name: &empty})
	require.Error(t, err)
	assert.Equal(t, "name is required", appErrors.FromError(err).Fields["name"])
}

func TestResourceServiceUpdateCreatorOrImam(t *testing.T) {
	svc, repo := resourceFixture()
	repo.resources["res-1"] = models.Resource{ID: "res-1", Name: "Chairs", ActivityID: "act-1", CreatedBy: "imam-1"}

	name := "Folding chairs"
	_, err := svc.Update(context.Background(), memberClaims("member-1"), "res-1", UpdateResourceRequest{Name: &name})
	require.Error(t, err)

	detail, err := svc.Update(context.Background(), imamClaims("imam-1"), "res-1", UpdateResourceRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Folding chairs", detail.Name)
}

func TestResourceServiceRetire(t *testing.T) {
	svc, repo := resourceFixture()
	repo.resources["res-1"] = models.Resource{ID: "res-1", Name: "Chairs", ActivityID: "act-1", CreatedBy: "imam-1"}

	require.NoError(t, svc.Retire(context.Background(), imamClaims("imam-1"), "res-1"))
	assert.Equal(t, []string{"res-1"}, repo.retired)
}
