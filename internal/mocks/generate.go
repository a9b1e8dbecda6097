// Package mocks provides gomock implementations of the portal's ports for testing.
//
// The mocks are generated with go.uber.org/mock (mockgen) from internal/ports and
// provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockRepo := mocks.NewMockUserRepository(ctrl)
//	mockRepo.EXPECT().GetByEmail(gomock.Any(), "jane@school.edu").Return(user, nil)
package mocks

// Generate mock for UserRepository interface from internal/ports package.
// Methods: GetByEmail, Create, UpdateName, List
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_repository_mock.go github.com/sbx-training/portal/internal/ports UserRepository

// Generate mock for DirectoryClient interface from internal/ports package.
// Methods: GetUser, ListUsers
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=directory_client_mock.go github.com/sbx-training/portal/internal/ports DirectoryClient

// Generate mock for ReplayGuard interface from internal/ports package.
// Methods: Claim
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=replay_guard_mock.go github.com/sbx-training/portal/internal/ports ReplayGuard
