package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/order-service/pkg/util"
)

func newAccountService(store *memoryStore) *AccountService {
	return NewAccountService(AccountDependencies{
		UserRepo:   &memUserRepo{store: store},
		UnitOfWork: &memUnitOfWork{store: store},
	})
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Name:     "Ana Torres",
		Email:    "ana@example.com",
		Password: "secret1",
		Address:  "1 Main St",
		Phone:    "555-0100",
	}
}

func TestRegister(t *testing.T) {
	store := newMemoryStore()
	svc := newAccountService(store)

	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Ana Torres", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)

	fetched, err := svc.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, fetched.Email)
}

func TestRegisterTrimsWhitespace(t *testing.T) {
	store := newMemoryStore()
	svc := newAccountService(store)

	input := validRegistration()
	input.Name = "  Ana Torres  "
	input.Email = " ana@example.com "

	user, err := svc.Register(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "Ana Torres", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemoryStore()
	store.addUser("Ana", "ana@example.com", "secret1")
	svc := newAccountService(store)

	_, err := svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRegisterValidation(t *testing.T) {
	store := newMemoryStore()
	svc := newAccountService(store)

	cases := map[string]func(*RegisterInput){
		"empty name":       func(in *RegisterInput) { in.Name = "  " },
		"empty email":      func(in *RegisterInput) { in.Email = "" },
		"short password":   func(in *RegisterInput) { in.Password = "12345" },
		"empty address":    func(in *RegisterInput) { in.Address = "" },
		"empty phone":      func(in *RegisterInput) { in.Phone = "" },
		"name too long":    func(in *RegisterInput) { in.Name = strings.Repeat("a", 101) },
		"email too long":   func(in *RegisterInput) { in.Email = strings.Repeat("a", 95) + "@e.com" },
		"address too long": func(in *RegisterInput) { in.Address = strings.Repeat("a", 256) },
		"phone too long":   func(in *RegisterInput) { in.Phone = strings.Repeat("5", 21) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validRegistration()
			mutate(&input)
			_, err := svc.Register(context.Background(), input)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
	assert.Empty(t, store.users)
}

func TestAuthenticate(t *testing.T) {
	store := newMemoryStore()
	registered := store.addUser("Ana", "ana@example.com", "secret1")
	svc := newAccountService(store)

	user, err := svc.Authenticate(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	store := newMemoryStore()
	store.addUser("Ana", "ana@example.com", "secret1")
	svc := newAccountService(store)

	_, err := svc.Authenticate(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "secret1")
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
}

func TestGetByIDUnknownUser(t *testing.T) {
	store := newMemoryStore()
	svc := newAccountService(store)

	_, err := svc.GetByID(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateUser(t *testing.T) {
	store := newMemoryStore()
	user := store.addUser("Ana", "ana@example.com", "secret1")
	svc := newAccountService(store)

	updated, err := svc.Update(context.Background(), user.ID, UpdateUserInput{
		Name:    "Ana M. Torres",
		Email:   "ana.torres@example.com",
		Address: "2 Oak Ave",
		Phone:   "555-0101",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana M. Torres", updated.Name)
	assert.Equal(t, "ana.torres@example.com", updated.Email)
	// Empty password leaves the stored one intact.
	assert.Equal(t, "secret1", store.users[user.ID].Password)
}

func TestUpdateUserPassword(t *testing.T) {
	store := newMemoryStore()
	user := store.addUser("Ana", "ana@example.com", "secret1")
	svc := newAccountService(store)

	_, err := svc.Update(context.Background(), user.ID, UpdateUserInput{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "changed1",
		Address:  "1 Main St",
		Phone:    "555-0100",
	})
	require.NoError(t, err)
	assert.Equal(t, "changed1", store.users[user.ID].Password)

	_, err = svc.Update(context.Background(), user.ID, UpdateUserInput{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "short",
		Address:  "1 Main St",
		Phone:    "555-0100",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdateUserEmailTakenByOther(t *testing.T) {
	store := newMemoryStore()
	ana := store.addUser("Ana", "ana@example.com", "secret1")
	store.addUser("Bob", "bob@example.com", "secret2")
	svc := newAccountService(store)

	_, err := svc.Update(context.Background(), ana.ID, UpdateUserInput{
		Name:    "Ana",
		Email:   "bob@example.com",
		Address: "1 Main St",
		Phone:   "555-0100",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	// Keeping one's own email is never a conflict.
	_, err = svc.Update(context.Background(), ana.ID, UpdateUserInput{
		Name:    "Ana",
		Email:   "ana@example.com",
		Address: "1 Main St",
		Phone:   "555-0100",
	})
	require.NoError(t, err)
}

func TestDeleteUserCascadesOrders(t *testing.T) {
	store := newMemoryStore()
	ana := store.addUser("Ana", "ana@example.com", "secret1")
	bob := store.addUser("Bob", "bob@example.com", "secret2")
	product := store.addProduct("Widget", "10.00", 100)

	orders := newOrderService(store, nil)
	anaOrder, err := orders.Create(context.Background(), ana.ID, []OrderItemInput{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)
	bobOrder, err := orders.Create(context.Background(), bob.ID, []OrderItemInput{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	svc := newAccountService(store)
	require.NoError(t, svc.Delete(context.Background(), ana.ID))

	_, exists := store.users[ana.ID]
	assert.False(t, exists)
	_, exists = store.orders[anaOrder.ID]
	assert.False(t, exists)
	_, exists = store.orders[bobOrder.ID]
	assert.True(t, exists)
}

func TestDeleteUnknownUser(t *testing.T) {
	store := newMemoryStore()
	svc := newAccountService(store)

	err := svc.Delete(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListUsers(t *testing.T) {
	store := newMemoryStore()
	store.addUser("Ana", "ana@example.com", "secret1")
	store.addUser("Bob", "bob@example.com", "secret2")
	svc := newAccountService(store)

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
