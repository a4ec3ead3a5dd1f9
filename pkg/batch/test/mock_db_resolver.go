// Package test provides mocks and fixtures shared by the package tests.
package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	dbadapter "github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
	coreadapter "github.com/tigerroll/vsatsla/pkg/batch/core/adapter"
)

// MockDBConnectionResolver is a testify mock of dbadapter.DBConnectionResolver.
type MockDBConnectionResolver struct {
	mock.Mock
}

// ResolveDBConnection mocks the ResolveDBConnection method.
func (m *MockDBConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	args := m.Called(ctx, name)
	conn, _ := args.Get(0).(dbadapter.DBConnection)
	return conn, args.Error(1)
}

// ResolveConnection mocks the ResolveConnection method.
func (m *MockDBConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreadapter.ResourceConnection, error) {
	args := m.Called(ctx, name)
	conn, _ := args.Get(0).(coreadapter.ResourceConnection)
	return conn, args.Error(1)
}

// testSingleConnectionResolver always resolves to one predefined connection.
type testSingleConnectionResolver struct {
	conn dbadapter.DBConnection
}

// NewTestSingleConnectionResolver returns a resolver that answers every name with conn.
func NewTestSingleConnectionResolver(conn dbadapter.DBConnection) dbadapter.DBConnectionResolver {
	return &testSingleConnectionResolver{conn: conn}
}

func (r *testSingleConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	return r.conn, nil
}

func (r *testSingleConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreadapter.ResourceConnection, error) {
	return r.conn, nil
}

var (
	_ dbadapter.DBConnectionResolver = (*MockDBConnectionResolver)(nil)
	_ dbadapter.DBConnectionResolver = (*testSingleConnectionResolver)(nil)
)
