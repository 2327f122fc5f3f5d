package mockapi

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jrsteele09/go-catalog-client/internal/errors"
	"github.com/jrsteele09/go-catalog-client/users"
)

type account struct {
	user         users.User
	passwordHash string
}

// SeedUser is a user created when the server starts.
type SeedUser struct {
	User     users.User
	Password string
}

// DefaultSeedUsers mirrors a few of the public DummyJSON accounts.
func DefaultSeedUsers() []SeedUser {
	return []SeedUser{
		{User: users.User{ID: 1, Username: "emilys", Email: "emily.johnson@x.dummyjson.com", FirstName: "Emily", LastName: "Johnson", Gender: "female", Image: "https://dummyjson.com/icon/emilys/128", Role: users.RoleAdmin}, Password: "emilyspass"},
		{User: users.User{ID: 2, Username: "michaelw", Email: "michael.williams@x.dummyjson.com", FirstName: "Michael", LastName: "Williams", Gender: "male", Image: "https://dummyjson.com/icon/michaelw/128", Role: users.RoleSuperAdmin}, Password: "michaelwpass"},
		{User: users.User{ID: 3, Username: "sophiab", Email: "sophia.brown@x.dummyjson.com", FirstName: "Sophia", LastName: "Brown", Gender: "female", Image: "https://dummyjson.com/icon/sophiab/128", Role: users.RoleUser}, Password: "sophiabpass"},
		{User: users.User{ID: 4, Username: "jamesd", Email: "james.davis@x.dummyjson.com", FirstName: "James", LastName: "Davis", Gender: "male", Image: "https://dummyjson.com/icon/jamesd/128", Role: users.RoleModerator}, Password: "jamesdpass"},
	}
}

// Accounts is the mock user directory with bcrypt-hashed passwords.
type Accounts struct {
	lock       sync.RWMutex
	byID       map[int]*account
	byUsername map[string]*account
}

func NewAccounts(seed []SeedUser) (*Accounts, error) {
	a := &Accounts{
		byID:       make(map[int]*account),
		byUsername: make(map[string]*account),
	}
	for _, s := range seed {
		hash, err := users.HashPassword(s.Password)
		if err != nil {
			return nil, fmt.Errorf("[mockapi NewAccounts] hash password for %s: %w", s.User.Username, err)
		}
		acc := &account{user: s.User, passwordHash: hash}
		a.byID[s.User.ID] = acc
		a.byUsername[strings.ToLower(s.User.Username)] = acc
	}
	return a, nil
}

func (a *Accounts) Authenticate(username, password string) (*users.User, error) {
	a.lock.RLock()
	acc, ok := a.byUsername[strings.ToLower(strings.TrimSpace(username))]
	a.lock.RUnlock()
	if !ok || !users.CheckPasswordHash(password, acc.passwordHash) {
		return nil, errors.ErrInvalidCredentials
	}
	u := acc.user
	return &u, nil
}

func (a *Accounts) Get(id int) (*users.User, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	acc, ok := a.byID[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	u := acc.user
	return &u, nil
}
