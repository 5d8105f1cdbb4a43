package inmemdb

import (
	"sort"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/masomo-portal/core/lms"
)

// Account is a backend user with a hashed password.
type Account struct {
	Email        string
	Role         string
	PasswordHash []byte
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Account) User() lms.User {
	return lms.User{Email: a.Email, Role: a.Role}
}

// accounts are keyed by email
type accountTable struct {
	mutex sync.RWMutex
	rows  map[string]Account
}

// CreateAccount stores a new account; the email must not be taken.
func (db *DB) CreateAccount(email, pwd, role string) (Account, error) {
	acct := Account{Email: email, Role: role}
	if err := acct.SetPassword(pwd); err != nil {
		return Account{}, err
	}

	db.accounts.mutex.Lock()
	defer db.accounts.mutex.Unlock()
	if _, ok := db.accounts.rows[email]; ok {
		return Account{}, ErrEmailExists
	}
	db.accounts.rows[email] = acct
	return acct, nil
}

func (db *DB) GetAccount(email string) (Account, error) {
	db.accounts.mutex.RLock()
	defer db.accounts.mutex.RUnlock()
	if acct, ok := db.accounts.rows[email]; ok {
		return acct, nil
	}
	return Account{}, ErrNotFound
}

// ListStudents returns the student accounts ordered by email.
func (db *DB) ListStudents() []lms.Student {
	db.accounts.mutex.RLock()
	defer db.accounts.mutex.RUnlock()
	students := make([]lms.Student, 0, len(db.accounts.rows))
	for _, acct := range db.accounts.rows {
		if acct.Role == lms.RoleStudent {
			students = append(students, lms.Student{Email: acct.Email})
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Email < students[j].Email })
	return students
}
